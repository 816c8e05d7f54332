package metricsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"

	"shipment-dashboard/internal/domain"
	"shipment-dashboard/internal/platform/obs"
)

// Upload posts the file as multipart field "file" to /upload/. The
// server's detail or message is preserved on failure.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (_ domain.UploadResult, err error) {
	defer obs.Time(ctx, "metricsapi.Upload")(&err)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return domain.UploadResult{}, fmt.Errorf("upload: create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return domain.UploadResult{}, fmt.Errorf("upload: read %q: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return domain.UploadResult{}, fmt.Errorf("upload: close multipart: %w", err)
	}

	resp, err := c.post(ctx, "upload", c.endpoint("/upload/", nil), buf.Bytes(), mw.FormDataContentType())
	if err != nil {
		return domain.UploadResult{}, fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	var res domain.UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return domain.UploadResult{}, fmt.Errorf("upload: decode response: %w", err)
	}
	return res, nil
}
