package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"shipment-dashboard/internal/domain"
	"shipment-dashboard/internal/services"
)

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func printShipments(w io.Writer, v services.View) {
	if !v.HasPage {
		fmt.Fprintln(w, "no data")
		return
	}

	tw := table(w)
	fmt.Fprintln(tw, "ID\tCUSTOMER\tORIGIN\tDEST\tCARRIER\tMODE\tSTATUS\tARRIVAL")
	for _, s := range v.Page.Items {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.CustomerID, s.Origin, s.Destination, s.Carrier, s.Mode, s.Status, s.ArrivalDate)
	}
	_ = tw.Flush()

	if len(v.Page.Items) == 0 {
		fmt.Fprintln(w, "no shipments match the filters")
	}
	fmt.Fprintf(w, "\npage %d of %d, %d shipments\n", v.Filter.Page, v.TotalPages, v.Page.TotalCount)
	if v.Stale {
		fmt.Fprintf(w, "showing last good data: %s\n", domain.UserMessage(v.Err, "refresh failed"))
	}
}

func printShipment(w io.Writer, s domain.ShipmentRecord) {
	tw := table(w)
	rows := []struct {
		k string
		v any
	}{
		{"shipment", s.ID},
		{"customer", s.CustomerID},
		{"origin", s.Origin},
		{"destination", s.Destination},
		{"carrier", s.Carrier},
		{"mode", s.Mode},
		{"status", s.Status},
		{"weight", s.Weight},
		{"volume", s.Volume},
		{"arrival", s.ArrivalDate},
		{"departure", s.DepartureDate},
		{"delivered", s.DeliveredDate},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%v\n", r.k, r.v)
	}
	_ = tw.Flush()
}

func printOverview(w io.Writer, o domain.Overview) {
	s := o.Summary
	fmt.Fprintf(w, "shipments %d, on time %d, delayed %d, warehouse %.1f%% (%.1f volume)\n\n",
		s.TotalShipments, s.OnTime, s.Delayed,
		s.WarehouseUtilization.UtilizationPercent, s.WarehouseUtilization.TotalVolume)

	tw := table(w)
	fmt.Fprintln(tw, "ARRIVAL\tCARRIER\tCOUNT")
	for _, c := range o.Carriers {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", c.ArrivalDate, c.Carrier, c.Count)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "MODE\tVOLUME")
	for _, m := range o.Modes {
		fmt.Fprintf(tw, "%s\t%.1f\n", m.Mode, m.TotalVolume)
	}
	_ = tw.Flush()
}

func printThroughput(w io.Writer, v services.View) {
	if len(v.Buckets) == 0 {
		fmt.Fprintln(w, "no throughput data")
		return
	}

	tw := table(w)
	fmt.Fprintln(tw, "MONTH\tRECEIVED\t")
	for i, b := range v.Buckets {
		marker := ""
		if i == v.Cursor {
			marker = "<"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", b.MonthKey, b.TotalPackagesReceived, marker)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "DATE\tRECEIVED\t")
	for _, p := range v.MonthDaily {
		fmt.Fprintf(tw, "%s\t%d\t\n", p.ArrivalDate, p.PackagesReceived)
	}
	_ = tw.Flush()
}

func printGroups(w io.Writer, groups []domain.ConsolidationGroup) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "no consolidation candidates")
		return
	}

	tw := table(w)
	fmt.Fprintln(tw, "DEST\tARRIVAL\tSHIPMENTS\tIDS")
	for _, g := range groups {
		ids := make([]int64, 0, len(g.Shipments))
		for _, s := range g.Shipments {
			ids = append(ids, s.ShipmentID)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%v\n", g.Destination, g.ArrivalDate, len(g.Shipments), ids)
	}
	_ = tw.Flush()
}

func printUpload(w io.Writer, r domain.UploadResult) {
	fmt.Fprintln(w, r.Message)
	fmt.Fprintf(w, "uploaded %d, duplicates removed %d, total shipments %d\n",
		r.TotalUploaded, r.DuplicatesRemoved, r.TotalShipments)
}
