package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shipment-dashboard/internal/adapters/metricsapi"
	"shipment-dashboard/internal/config"
	"shipment-dashboard/internal/platform/logging"
	"shipment-dashboard/internal/services"
)

var (
	verbose bool
	timeout time.Duration

	cfg    config.Config
	logger *zap.Logger
	client *metricsapi.Client
)

var rootCmd = &cobra.Command{
	Use:   "dashctl",
	Short: "Query the shipment metrics API from the terminal",
	Long: `dashctl drives the same engine as the dashboard server: filtered and
paged shipment queries, consolidation groups and exports, the monthly
throughput window, and CSV uploads.

The metrics API is read from METRICS_API_URL (or a .env file).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, _, err = config.Load(); err != nil {
			return err
		}

		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		if logger, err = logging.New(level); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		zap.ReplaceGlobals(logger)

		client, err = metricsapi.NewClient(cfg.MetricsAPIURL, metricsapi.Options{
			Timeout:     cfg.RequestTimeout,
			MaxAttempts: cfg.RetryMaxAttempts,
			Logger:      logger,
		})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall command timeout")

	rootCmd.AddCommand(
		shipmentsCmd,
		shipmentCmd,
		overviewCmd,
		throughputCmd,
		consolidationCmd,
		uploadCmd,
		statusCmd,
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newEngine builds an in-process engine against the configured API.
// Snapshots and the overview cache are server concerns and stay disabled.
func newEngine() (*services.Engine, error) {
	return services.NewEngine(services.EngineConfig{
		PageSize:        cfg.PageSize,
		ExportDir:       cfg.ExportDir,
		AbortSuperseded: cfg.AbortSuperseded,
	}, services.Deps{API: client, Logger: logger})
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}
