package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/fgeck/pgtransfer/internal/api"
	"github.com/fgeck/pgtransfer/internal/services/connstr"
	"github.com/fgeck/pgtransfer/internal/services/runner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API:
  POST /export   export the configured database
  POST /import   restore an uploaded archive
  GET  /status   export inventory and tool inventory
  GET  /tools    tool inventory
  GET  /health   liveness
  GET  /ready    database readiness
  GET  /metrics  Prometheus metrics`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	runnerSvc, err := runner.New(ctx, log.Logger, cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize services")
		return err
	}

	// Publish the tool gauges once at startup.
	inv := runnerSvc.Tools(ctx)
	log.Info().
		Bool("pg_dump", inv.Dump.Available).
		Bool("pg_restore", inv.Restore.Available).
		Bool("psql", inv.InteractiveSQL.Available).
		Msg("tool discovery completed")

	handler := api.NewHandler(log.Logger, runnerSvc, cfg.Server.MaxUploadBytes)
	srv := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      api.NewRouter(log.Logger, handler, cfg.Server),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("listen", cfg.Server.Listen).
			Str("base_path", cfg.Server.BasePath).
			Str("database", connstr.Redact(cfg.Database.URL)).
			Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server failed")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		return err
	}

	log.Info().Msg("HTTP server stopped")
	return nil
}
