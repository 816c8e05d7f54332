package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"shipment-dashboard/internal/domain"
	"shipment-dashboard/internal/services"
)

// APIError is the JSON body of every failed request.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// toAPIError maps engine and transport errors onto HTTP statuses. The
// message is what the dashboard shows: the metrics API's own detail when
// it sent one.
func toAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return &APIError{Status: he.Code, Code: "HTTP_ERROR", Message: fmt.Sprintf("%v", he.Message)}
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return &APIError{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Message: ve.Error()}
	}

	var te *domain.TransportError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return &APIError{
			Status:  http.StatusNotFound,
			Code:    "NOT_FOUND",
			Message: domain.UserMessage(err, "Not found"),
		}
	case errors.Is(err, domain.ErrCircuitOpen):
		return &APIError{
			Status:  http.StatusServiceUnavailable,
			Code:    "UPSTREAM_UNAVAILABLE",
			Message: "Metrics service is temporarily unavailable",
			Details: err.Error(),
		}
	case errors.Is(err, services.ErrSuperseded):
		return &APIError{
			Status:  http.StatusConflict,
			Code:    "SUPERSEDED",
			Message: "A newer request replaced this one",
		}
	case errors.Is(err, context.DeadlineExceeded):
		return &APIError{
			Status:  http.StatusGatewayTimeout,
			Code:    "TIMEOUT",
			Message: "Request timed out",
		}
	case errors.As(err, &te):
		return &APIError{
			Status:  http.StatusBadGateway,
			Code:    "UPSTREAM_ERROR",
			Message: domain.UserMessage(err, "Request failed"),
			Details: err.Error(),
		}
	}

	return &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: "An unexpected error occurred",
		Details: err.Error(),
	}
}

// ErrorHandler returns an echo.HTTPErrorHandler writing APIError bodies.
func ErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		apiErr := toAPIError(err)
		if apiErr.Status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("path", c.Path()),
				zap.Int("status", apiErr.Status),
				zap.Error(err),
			)
		}
		if err := c.JSON(apiErr.Status, apiErr); err != nil {
			logger.Warn("error response not written", zap.Error(err))
		}
	}
}
