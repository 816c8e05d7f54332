package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"shipment-dashboard/internal/adapters/metricsapi"
	"shipment-dashboard/internal/domain"
	"shipment-dashboard/internal/services"
)

var shipmentFilters struct {
	status, destination, carrier string
	from, to, search             string
	page                         int
}

var shipmentsCmd = &cobra.Command{
	Use:   "shipments",
	Short: "List one page of shipments matching the filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		engine, err := newEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		f := shipmentFilters
		for _, set := range []struct {
			field domain.Field
			value string
		}{
			{domain.FieldStatus, f.status},
			{domain.FieldDestination, f.destination},
			{domain.FieldCarrier, f.carrier},
			{domain.FieldArrivalStart, f.from},
			{domain.FieldArrivalEnd, f.to},
			{domain.FieldSearch, f.search},
		} {
			if set.value == "" {
				continue
			}
			if _, err := engine.SetFilter(set.field, set.value); err != nil {
				return err
			}
		}

		if err := engine.Refresh(ctx); err != nil {
			return err
		}
		if f.page > 1 {
			if _, err := engine.SetPage(f.page); err != nil {
				return err
			}
			if err := engine.Wait(ctx); err != nil {
				return err
			}
		}

		printShipments(cmd.OutOrStdout(), engine.View())
		return nil
	},
}

var shipmentCmd = &cobra.Command{
	Use:   "shipment [id]",
	Short: "Show one shipment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("shipment id %q: %w", args[0], err)
		}

		engine, err := newEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		rec, err := engine.ShipmentDetail(ctx, id)
		if err != nil {
			return err
		}
		printShipment(cmd.OutOrStdout(), rec)
		return nil
	},
}

var overviewRange struct{ start, end string }

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Show KPIs, carrier and mode breakdowns",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		start, err := domain.ParseDate(overviewRange.start)
		if err != nil {
			return err
		}
		end, err := domain.ParseDate(overviewRange.end)
		if err != nil {
			return err
		}

		engine, err := newEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		o, err := engine.LoadOverview(ctx, domain.DateRange{Start: start, End: end})
		if err != nil {
			return err
		}
		printOverview(cmd.OutOrStdout(), o)
		return nil
	},
}

var throughputMonth string

var throughputCmd = &cobra.Command{
	Use:   "throughput",
	Short: "Show monthly throughput and the daily breakdown of one month",
	Long: `Shows every month's total and the daily series of the selected month.
Without --month the most recent month is selected.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		engine, err := newEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		if err := engine.FetchThroughput(ctx); err != nil {
			return err
		}
		if throughputMonth != "" {
			if err := seekMonth(engine, throughputMonth); err != nil {
				return err
			}
		}
		printThroughput(cmd.OutOrStdout(), engine.View())
		return nil
	},
}

// seekMonth moves the window cursor to month, which must be a loaded month key.
func seekMonth(engine *services.Engine, month string) error {
	v := engine.View()
	target := slices.IndexFunc(v.Buckets, func(b domain.MonthBucket) bool { return b.MonthKey == month })
	if target < 0 {
		return fmt.Errorf("month %s not in series", month)
	}
	for cur := v.Cursor; cur != target; {
		var moved bool
		if target < cur {
			moved = engine.PreviousMonth()
			cur--
		} else {
			moved = engine.NextMonth()
			cur++
		}
		if !moved {
			return fmt.Errorf("month %s not reachable", month)
		}
	}
	return nil
}

var consolidationOpts struct {
	destination, date string
	export            bool
}

var consolidationCmd = &cobra.Command{
	Use:   "consolidation",
	Short: "List consolidation groups and optionally export them as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		date, err := domain.ParseDate(consolidationOpts.date)
		if err != nil {
			return err
		}

		engine, err := newEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		f := domain.ConsolidationFilter{
			Destination: strings.ToUpper(strings.TrimSpace(consolidationOpts.destination)),
			ArrivalDate: date,
		}
		groups, err := engine.FetchGroups(ctx, f)
		if err != nil {
			return err
		}
		printGroups(cmd.OutOrStdout(), groups)

		if !consolidationOpts.export {
			return nil
		}
		a, err := engine.ExportCSV(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nexported %s (%d bytes)\n", a.Path, a.Bytes)
		return nil
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload [file.csv]",
	Short: "Upload a shipments CSV for bulk ingest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		path := args[0]
		if err := domain.ValidateUploadName(path); err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		engine, err := newEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		res, err := engine.Upload(ctx, filepath.Base(path), f)
		if err != nil {
			return fmt.Errorf("%s", domain.UserMessage(err, "Upload failed"))
		}
		printUpload(cmd.OutOrStdout(), res)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check that the metrics API answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		return printStatus(ctx, cmd.OutOrStdout(), client, cfg.MetricsAPIURL)
	},
}

// printStatus reports whether the metrics API answers, along with the
// client's breaker state.
func printStatus(ctx context.Context, w io.Writer, c *metricsapi.Client, baseURL string) error {
	s, err := c.Summary(ctx)
	if err != nil {
		fmt.Fprintf(w, "metrics api %s: unavailable (breaker %s)\n", baseURL, c.BreakerState())
		return err
	}
	fmt.Fprintf(w, "metrics api %s: ok, %d shipments (breaker %s)\n", baseURL, s.TotalShipments, c.BreakerState())
	return nil
}

func init() {
	fl := shipmentsCmd.Flags()
	fl.StringVar(&shipmentFilters.status, "status", "", "received, intransit or delivered")
	fl.StringVar(&shipmentFilters.destination, "destination", "", "destination code, e.g. GUY")
	fl.StringVar(&shipmentFilters.carrier, "carrier", "", "carrier code, e.g. DHL")
	fl.StringVar(&shipmentFilters.from, "from", "", "arrival date lower bound (YYYY-MM-DD)")
	fl.StringVar(&shipmentFilters.to, "to", "", "arrival date upper bound (YYYY-MM-DD)")
	fl.StringVar(&shipmentFilters.search, "search", "", "shipment or customer id")
	fl.IntVar(&shipmentFilters.page, "page", 1, "page number")

	overviewCmd.Flags().StringVar(&overviewRange.start, "start", "", "carrier breakdown start date")
	overviewCmd.Flags().StringVar(&overviewRange.end, "end", "", "carrier breakdown end date")

	throughputCmd.Flags().StringVar(&throughputMonth, "month", "", "month to break down (YYYY-MM)")

	consolidationCmd.Flags().StringVar(&consolidationOpts.destination, "destination", "", "destination code")
	consolidationCmd.Flags().StringVar(&consolidationOpts.date, "date", "", "arrival date (YYYY-MM-DD)")
	consolidationCmd.Flags().BoolVar(&consolidationOpts.export, "export", false, "write the CSV export into EXPORT_DIR")
}
