// Package main is the entry point for the fund-of-funds liquidity service.
// It serves the liquidity analysis API, persists funds with their holdings
// and flow history, and runs the scheduled liquidity check, database
// maintenance and backups.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/fofliquidity/internal/config"
	"github.com/aristath/fofliquidity/internal/di"
	"github.com/aristath/fofliquidity/internal/server"
	"github.com/aristath/fofliquidity/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Fallback logger so the configuration error is still reported
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Str("method", cfg.Policy.Method).
		Int("target_horizon", cfg.Policy.TargetHorizon).
		Bool("backups", cfg.Backup.Enabled()).
		Msg("Starting fofliquidity")

	container, jobs, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close funds database")
		}
	}()

	srv := server.New(server.Config{
		Log:            log,
		Port:           cfg.Port,
		DevMode:        cfg.DevMode,
		AllowedOrigins: cfg.AllowedOrigins,
		Container:      container,
		Jobs:           jobs,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	container.Scheduler.Start()
	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Running jobs finish before the database closes
	container.Scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
