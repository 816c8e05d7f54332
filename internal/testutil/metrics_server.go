package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"

	"shipment-dashboard/internal/domain"
)

// NewMetricsServer serves the remote metrics API contract from api.
func NewMetricsServer(api *FakeAPI) *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /metrics/summary", func(w http.ResponseWriter, r *http.Request) {
		s, err := api.Summary(r.Context())
		respond(w, s, err)
	})

	mux.HandleFunc("GET /metrics/received-by-carrier", func(w http.ResponseWriter, r *http.Request) {
		var dr domain.DateRange
		var err error
		if dr.Start, err = domain.ParseDate(r.URL.Query().Get("start_date")); err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "invalid start_date")
			return
		}
		if dr.End, err = domain.ParseDate(r.URL.Query().Get("end_date")); err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "invalid end_date")
			return
		}
		c, err := api.ReceivedByCarrier(r.Context(), dr)
		respond(w, map[string]any{"received_by_carrier": c}, err)
	})

	mux.HandleFunc("GET /metrics/volume-by-mode", func(w http.ResponseWriter, r *http.Request) {
		m, err := api.VolumeByMode(r.Context())
		respond(w, map[string]any{"volume_by_mode": m}, err)
	})

	mux.HandleFunc("GET /metrics/throughput", func(w http.ResponseWriter, r *http.Request) {
		t, err := api.Throughput(r.Context())
		respond(w, map[string]any{"throughput": t}, err)
	})

	mux.HandleFunc("GET /metrics/shipments", func(w http.ResponseWriter, r *http.Request) {
		f, err := filterFromQuery(r)
		if err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		p, err := api.ListShipments(r.Context(), f)
		respond(w, p, err)
	})

	mux.HandleFunc("GET /metrics/shipments/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "invalid shipment id")
			return
		}
		rec, err := api.GetShipment(r.Context(), id)
		respond(w, rec, err)
	})

	mux.HandleFunc("GET /metrics/consolidation", func(w http.ResponseWriter, r *http.Request) {
		d, err := domain.ParseDate(r.URL.Query().Get("arrival_date"))
		if err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "invalid arrival_date")
			return
		}
		f := domain.ConsolidationFilter{Destination: r.URL.Query().Get("destination"), ArrivalDate: d}
		groups, err := api.Consolidation(r.Context(), f)
		respond(w, map[string]any{"cargo_consolidation": groups}, err)
	})

	mux.HandleFunc("POST /metrics/consolidation/export", func(w http.ResponseWriter, r *http.Request) {
		var req domain.ExportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "invalid export body")
			return
		}
		body, err := api.ExportConsolidation(r.Context(), req)
		if err != nil {
			respond(w, nil, err)
			return
		}
		defer body.Close()
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="consolidation.csv"`)
		_, _ = io.Copy(w, body)
	})

	mux.HandleFunc("POST /upload/", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "file is required")
			return
		}
		defer file.Close()
		if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
			writeDetail(w, http.StatusBadRequest, "Only .csv files are accepted")
			return
		}
		res, err := api.Upload(r.Context(), header.Filename, file)
		if err != nil {
			respond(w, nil, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	})

	return httptest.NewServer(mux)
}

func filterFromQuery(r *http.Request) (domain.FilterState, error) {
	q := r.URL.Query()
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil {
		return domain.FilterState{}, errors.New("page is required")
	}
	size, err := strconv.Atoi(q.Get("page_size"))
	if err != nil {
		return domain.FilterState{}, errors.New("page_size is required")
	}
	f := domain.FilterState{
		Status:      domain.Status(q.Get("status")),
		Destination: q.Get("destination"),
		Carrier:     q.Get("carrier"),
		Search:      q.Get("search"),
		Page:        page,
		PageSize:    size,
	}
	if f.ArrivalStart, err = domain.ParseDate(q.Get("arrival_date_start")); err != nil {
		return domain.FilterState{}, err
	}
	if f.ArrivalEnd, err = domain.ParseDate(q.Get("arrival_date_end")); err != nil {
		return domain.FilterState{}, err
	}
	return f, nil
}

func respond(w http.ResponseWriter, v any, err error) {
	var te *domain.TransportError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, v)
	case errors.Is(err, domain.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Shipment not found")
	case errors.As(err, &te) && te.StatusCode > 0:
		writeDetail(w, te.StatusCode, te.Detail)
	case errors.Is(err, context.Canceled):
		return
	default:
		writeDetail(w, http.StatusInternalServerError, err.Error())
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	if detail == "" {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
