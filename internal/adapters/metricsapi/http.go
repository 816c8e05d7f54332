package metricsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"shipment-dashboard/internal/domain"
	"shipment-dashboard/internal/platform/obs"
)

// errorBody is the error payload of the metrics API. detail may be a
// string or a structured validation report.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

func (c *Client) newRequest(
	ctx context.Context,
	method string,
	url string,
	body io.Reader,
	contentType string,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if reqID := obs.RequestID(ctx); reqID != "" {
		req.Header.Set("X-Request-ID", reqID)
	}
	if body != nil && contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	return req, nil
}

// do sends req and converts failures into *domain.TransportError.
func (c *Client) do(op string, req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.session.Do(req)
	if err != nil {
		c.metrics.ObserveAPI(op, 0, start)
		return nil, &domain.TransportError{Op: op, Err: err}
	}
	c.metrics.ObserveAPI(op, resp.StatusCode, start)

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()
		return nil, &domain.TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Detail:     serverDetail(b),
		}
	}
	return resp, nil
}

// serverDetail extracts detail, then message, from an error payload.
// Anything else yields "" so callers fall back to a generic message.
func serverDetail(b []byte) string {
	var body errorBody
	if err := json.Unmarshal(b, &body); err != nil {
		return ""
	}
	var detail string
	if len(body.Detail) > 0 && json.Unmarshal(body.Detail, &detail) == nil && strings.TrimSpace(detail) != "" {
		return detail
	}
	return strings.TrimSpace(body.Message)
}

// doWithRetry retries transient failures (network errors, 429 and 5xx)
// with exponential backoff while respecting context cancellation.
func (c *Client) doWithRetry(
	ctx context.Context,
	op string,
	attempts int,
	makeReq func() (*http.Request, error),
) (*http.Response, error) {
	backoff := c.initialBackoff

	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}

		resp, err := c.do(op, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var te *domain.TransportError
		if !errors.As(err, &te) || !te.Retryable() || attempt == attempts {
			return nil, lastErr
		}

		c.logger.Debug("retrying metrics api request",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	return nil, lastErr
}

// getJSON issues an idempotent GET with retry and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, op string, url string, out any) error {
	_, err := c.execute(op, func() (any, error) {
		resp, err := c.doWithRetry(ctx, op, c.maxAttempts, func() (*http.Request, error) {
			return c.newRequest(ctx, http.MethodGet, url, nil, "")
		})
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, &domain.TransportError{Op: op, StatusCode: 0, Err: fmt.Errorf("decode response: %w", err)}
		}
		return nil, nil
	})
	return err
}

// post sends a single non-retried request and returns the open response.
func (c *Client) post(ctx context.Context, op string, url string, body []byte, contentType string) (*http.Response, error) {
	out, err := c.execute(op, func() (any, error) {
		return c.doWithRetry(ctx, op, 1, func() (*http.Request, error) {
			return c.newRequest(ctx, http.MethodPost, url, bytes.NewReader(body), contentType)
		})
	})
	if err != nil {
		return nil, err
	}
	return out.(*http.Response), nil
}
