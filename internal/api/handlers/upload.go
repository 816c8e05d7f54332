package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"shipment-dashboard/internal/domain"
)

type UploadHandler struct {
	Engine Dashboard
}

// Upload forwards the multipart "file" field to the metrics API.
func (h *UploadHandler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return &domain.ValidationError{Field: "file", Reason: "a CSV file is required", Err: err}
	}
	if err := domain.ValidateUploadName(fh.Filename); err != nil {
		return err
	}

	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := h.Engine.Upload(c.Request().Context(), fh.Filename, f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}
