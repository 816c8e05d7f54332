package api

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"shipment-dashboard/internal/platform/obs"
)

const headerRequestID = "X-Request-ID"

// requestContext attaches a request ID to the request context so outbound
// metrics API calls carry the same ID, and echoes it back to the caller.
func requestContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := obs.WithRequestID(req.Context(), req.Header.Get(headerRequestID))
			c.SetRequest(req.WithContext(ctx))
			c.Response().Header().Set(headerRequestID, obs.RequestID(ctx))
			return next(c)
		}
	}
}

// requestLogger logs end-to-end duration and response size of each request.
func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				// Let the error handler write the response so the logged status is final.
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			logger.Info("request",
				zap.String("method", req.Method),
				zap.String("path", req.URL.RequestURI()),
				zap.Int("status", res.Status),
				zap.Int64("bytes", res.Size),
				zap.Duration("dur", time.Since(start)),
				zap.String("request_id", obs.RequestID(req.Context())),
			)
			return nil
		}
	}
}
