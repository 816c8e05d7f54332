package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"shipment-dashboard/internal/api/handlers"
	"shipment-dashboard/internal/platform/logging"
	"shipment-dashboard/internal/platform/metrics"
)

// maxUploadBytes bounds the CSV body accepted by POST /upload.
const maxUploadBytes = "32M"

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(engine handlers.Dashboard, m *metrics.Metrics, logger *zap.Logger) http.Handler {
	logger = logging.OrNop(logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(requestContext())
	e.Use(requestLogger(logger))
	e.Use(middleware.BodyLimit(maxUploadBytes))

	shipments := &handlers.ShipmentHandler{Engine: engine}
	consolidation := &handlers.ConsolidationHandler{Engine: engine}
	charts := &handlers.MetricsHandler{Engine: engine}
	upload := &handlers.UploadHandler{Engine: engine}

	e.GET("/health", handlers.Health)
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}

	e.GET("/state", shipments.State)
	e.PUT("/filters/:field", shipments.SetFilter)
	e.DELETE("/filters", shipments.ClearFilters)
	e.POST("/page/next", shipments.NextPage)
	e.POST("/page/prev", shipments.PreviousPage)
	e.PUT("/page/:n", shipments.SetPage)
	e.POST("/refresh", shipments.Refresh)
	e.GET("/shipments/:id", shipments.Detail)

	e.GET("/consolidation", consolidation.Get)
	e.POST("/consolidation", consolidation.Fetch)
	e.POST("/consolidation/:index/toggle", consolidation.Toggle)
	e.GET("/consolidation/export", consolidation.Download)
	e.POST("/consolidation/export", consolidation.Save)

	e.GET("/overview", charts.Overview)
	e.GET("/throughput", charts.Throughput)
	e.POST("/throughput/prev", charts.PreviousMonth)
	e.POST("/throughput/next", charts.NextMonth)

	e.POST("/upload", upload.Upload)

	return e
}
