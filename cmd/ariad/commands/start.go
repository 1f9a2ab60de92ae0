package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openaria/ariad/internal/logger"
	"github.com/openaria/ariad/internal/telemetry"
	"github.com/openaria/ariad/pkg/api"
	"github.com/openaria/ariad/pkg/config"
	"github.com/openaria/ariad/pkg/ingest"
	"github.com/openaria/ariad/pkg/metrics"
	"github.com/openaria/ariad/pkg/store"

	// Import prometheus metrics to register the constructors.
	_ "github.com/openaria/ariad/pkg/metrics/prometheus"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the ariad server",
	Long: `Start the ariad server in the foreground.

The configuration file is optional: defaults plus environment variables
(DATABASE_URL, WEIGHT_UNIT, LOG_LEVEL, or the full ARIAD_* set) cover a
bare deployment with embedded SQLite.

Examples:
  # SQLite in ./data, listening on port 80
  ariad start

  # PostgreSQL and pounds on the display
  DATABASE_URL=postgres://ariad:secret@db/ariad WEIGHT_UNIT=lbs ariad start

  # Custom config file
  ariad start --config /etc/ariad/ariad.yaml`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg.Telemetry.ServiceVersion = Version
	telemetryShutdown, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	cfg.Profiling.ServiceVersion = Version
	profilingShutdown, err := telemetry.InitProfiling(cfg.Profiling)
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	logger.Info("starting ariad", "version", Version, "log_level", cfg.Logging.Level)

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	// The store must be reachable before the listener comes up; a scale
	// that gets a response from a storeless server would consider its
	// backlog delivered.
	st, err := store.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	if err := st.Ping(ctx); err != nil {
		return fmt.Errorf("store unreachable: %w", err)
	}
	logger.Info("store ready", "type", string(cfg.Database.Type))

	pipeline := ingest.New(st, cfg.Unit(), metrics.NewIngestMetrics())
	server := api.NewServer(cfg.Server, st, pipeline, cfg.WeightUnit)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Start(ctx)
	}()

	if cfg.Metrics.Enabled {
		if ms := metrics.NewServer(cfg.Metrics.Port); ms != nil {
			logger.Info("metrics enabled", "port", cfg.Metrics.Port)
			go func() {
				if err := ms.Start(ctx); err != nil {
					logger.Error("metrics server error", "error", err)
				}
			}()
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received", "signal", sig.String())
		cancel()
		if err := <-serverDone; err != nil {
			logger.Error("server shutdown error", "error", err)
			return err
		}
		logger.Info("server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
		logger.Info("server stopped")
	}
	return nil
}
