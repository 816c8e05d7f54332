package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"shipment-dashboard/internal/api/dto"
	"shipment-dashboard/internal/domain"
)

// ShipmentHandler exposes the filtered shipment table. Mutations return
// 202 with the state right after submission; pass ?wait=true to block until
// the query resolves.
type ShipmentHandler struct {
	Engine Dashboard
}

func (h *ShipmentHandler) State(c echo.Context) error {
	if truthy(c.QueryParam("wait")) {
		if err := h.wait(c); err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, dto.NewStateResponse(h.Engine.View()))
}

// SetFilter sets one field from the JSON body {"value": ...} or the value
// query parameter. An empty value clears the field.
func (h *ShipmentHandler) SetFilter(c echo.Context) error {
	field, err := domain.ParseField(c.Param("field"))
	if err != nil {
		return err
	}

	value := c.QueryParam("value")
	if c.Request().ContentLength > 0 {
		var req dto.FilterRequest
		if err := c.Bind(&req); err != nil {
			return err
		}
		value = req.Value
	}

	if _, err := h.Engine.SetFilter(field, value); err != nil {
		return err
	}
	return h.accepted(c)
}

func (h *ShipmentHandler) ClearFilters(c echo.Context) error {
	h.Engine.ClearFilters()
	return h.accepted(c)
}

func (h *ShipmentHandler) SetPage(c echo.Context) error {
	n, err := parseInt("page", c.Param("n"))
	if err != nil {
		return err
	}
	if _, err := h.Engine.SetPage(n); err != nil {
		return err
	}
	return h.accepted(c)
}

func (h *ShipmentHandler) NextPage(c echo.Context) error {
	if _, err := h.Engine.NextPage(); err != nil {
		return err
	}
	return h.accepted(c)
}

func (h *ShipmentHandler) PreviousPage(c echo.Context) error {
	if _, err := h.Engine.PreviousPage(); err != nil {
		return err
	}
	return h.accepted(c)
}

// Refresh re-runs the current query and returns the resolved state. A failed
// query is reported in the state body, not as an error status.
func (h *ShipmentHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.Engine.Refresh(ctx); err != nil && ctx.Err() != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewStateResponse(h.Engine.View()))
}

func (h *ShipmentHandler) Detail(c echo.Context) error {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return &domain.ValidationError{Field: "shipment_id", Value: raw, Reason: "expected an integer", Err: err}
	}

	rec, err := h.Engine.ShipmentDetail(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *ShipmentHandler) accepted(c echo.Context) error {
	status := http.StatusAccepted
	if truthy(c.QueryParam("wait")) {
		if err := h.wait(c); err != nil {
			return err
		}
		status = http.StatusOK
	}
	return c.JSON(status, dto.NewStateResponse(h.Engine.View()))
}

// wait blocks until the latest query resolves. Query failures are already
// visible in the view; only the caller's own cancellation is returned.
func (h *ShipmentHandler) wait(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.Engine.Wait(ctx); err != nil && ctx.Err() != nil {
		return err
	}
	return nil
}
