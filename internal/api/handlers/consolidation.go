package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"shipment-dashboard/internal/api/dto"
	"shipment-dashboard/internal/domain"
)

type ConsolidationHandler struct {
	Engine Dashboard
}

type consolidationRequest struct {
	Destination string `json:"destination" query:"destination"`
	ArrivalDate string `json:"arrival_date" query:"arrival_date"`
}

func (h *ConsolidationHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.NewConsolidationResponse(h.Engine.View()))
}

// Fetch loads the groups for the destination and arrival date given in the
// body or query string. Both are optional.
func (h *ConsolidationHandler) Fetch(c echo.Context) error {
	var req consolidationRequest
	binder := &echo.DefaultBinder{}
	if err := binder.BindQueryParams(c, &req); err != nil {
		return err
	}
	if c.Request().ContentLength > 0 {
		if err := binder.BindBody(c, &req); err != nil {
			return err
		}
	}

	date, err := parseDate("arrival_date", req.ArrivalDate)
	if err != nil {
		return err
	}
	f := domain.ConsolidationFilter{
		Destination: strings.ToUpper(strings.TrimSpace(req.Destination)),
		ArrivalDate: date,
	}

	if _, err := h.Engine.FetchGroups(c.Request().Context(), f); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewConsolidationResponse(h.Engine.View()))
}

func (h *ConsolidationHandler) Toggle(c echo.Context) error {
	i, err := parseInt("index", c.Param("index"))
	if err != nil {
		return err
	}
	if _, err := h.Engine.ToggleDetail(i); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewConsolidationResponse(h.Engine.View()))
}

// Download streams the CSV export for the displayed groups.
func (h *ConsolidationHandler) Download(c echo.Context) error {
	name, body, err := h.Engine.ExportStream(c.Request().Context())
	if err != nil {
		return err
	}
	defer body.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Stream(http.StatusOK, "text/csv", body)
}

// Save writes the CSV export into the server's export directory.
func (h *ConsolidationHandler) Save(c echo.Context) error {
	a, err := h.Engine.ExportCSV(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dto.NewExportResponse(a))
}
