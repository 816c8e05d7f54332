package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"shipment-dashboard/internal/api/dto"
	"shipment-dashboard/internal/domain"
)

type MetricsHandler struct {
	Engine Dashboard
}

// Overview returns KPIs and charts. start_date and end_date bound the
// carrier breakdown and are optional.
func (h *MetricsHandler) Overview(c echo.Context) error {
	start, err := parseDate("start_date", c.QueryParam("start_date"))
	if err != nil {
		return err
	}
	end, err := parseDate("end_date", c.QueryParam("end_date"))
	if err != nil {
		return err
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return &domain.ValidationError{Field: "end_date", Value: end.String(), Reason: "must not be before start_date"}
	}

	o, err := h.Engine.LoadOverview(c.Request().Context(), domain.DateRange{Start: start, End: end})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}

// Throughput returns the month window. ?refresh=true reloads the series
// first.
func (h *MetricsHandler) Throughput(c echo.Context) error {
	if truthy(c.QueryParam("refresh")) {
		if err := h.Engine.FetchThroughput(c.Request().Context()); err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, dto.NewThroughputResponse(h.Engine.View()))
}

// PreviousMonth and NextMonth are no-ops at the ends of the series.
func (h *MetricsHandler) PreviousMonth(c echo.Context) error {
	h.Engine.PreviousMonth()
	return c.JSON(http.StatusOK, dto.NewThroughputResponse(h.Engine.View()))
}

func (h *MetricsHandler) NextMonth(c echo.Context) error {
	h.Engine.NextMonth()
	return c.JSON(http.StatusOK, dto.NewThroughputResponse(h.Engine.View()))
}
