// Package main is the entry point for the trailing annualized returns calculator.
// It computes the configured holding-period returns once at startup and, when a
// schedule or an API port is configured, keeps running to recompute on demand.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/returns/internal/config"
	"github.com/aristath/returns/internal/di"
	"github.com/aristath/returns/internal/returns"
	"github.com/aristath/returns/internal/scheduler"
	"github.com/aristath/returns/internal/server"
	"github.com/aristath/returns/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Ints("periods", cfg.Periods).
		Str("input", cfg.InputDB).
		Str("output", cfg.OutputDB).
		Msg("Starting returns")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, jobs, err := di.Wire(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}

	// Initial run. An empty input is not an error; anything else is fatal in one-shot mode.
	result, err := container.Pipeline.Run(ctx, "startup")
	if err != nil && !errors.Is(err, returns.ErrInputEmpty) {
		if !cfg.Daemon() {
			container.Close()
			log.Fatal().Err(err).Msg("Run failed")
		}
		log.Error().Err(err).Msg("Startup run failed, waiting for the next trigger")
	} else if result != nil {
		log.Info().
			Str("status", string(result.Status)).
			Int("output_rows", result.OutputRows).
			Msg("Startup run finished")
	}

	if !cfg.Daemon() {
		container.Close()
		return
	}
	defer container.Close()

	container.Scheduler.Start()
	if jobs.Returns != nil {
		if next, ok := container.Scheduler.NextRun(jobs.Returns.Name()); ok {
			log.Info().Time("next_run", next).Msg("Scheduled runs enabled")
		}
	}

	var srv *server.Server
	if cfg.Port > 0 {
		srv = server.New(server.Config{
			Log:       log,
			Port:      cfg.Port,
			Runs:      container.Pipeline,
			OutputDB:  container.OutputDB,
			Scheduler: container.Scheduler,
			JobName:   scheduler.ReturnsJobName,
		})

		// Start server in goroutine
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("Failed to start server")
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")
	cancel()

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
	}

	// Waits for a scheduled run in progress
	container.Scheduler.Stop()

	log.Info().Msg("Stopped")
}
