package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/siteparser/internal/api"
	"github.com/nao1215/siteparser/internal/config"
	logpkg "github.com/nao1215/siteparser/internal/log"
)

// shutdownGrace is how long in-flight API requests get to finish after a
// termination signal.
const shutdownGrace = 10 * time.Second

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Serve exposes the crawler over HTTP:

  POST /api/parse   {"url": ..., "config": ..., "overrides": {...}}
  GET  /api/health  liveness probe
  GET  /metrics     Prometheus metrics

The base configuration comes from --config and PARSER_* environment
variables; callers can layer validated overrides per request.`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("addr", "a", "127.0.0.1:8080", "Listen address")
	cmd.Flags().StringP("config", "c", "", "Config file path (TOML or JSON)")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if level, _ := cmd.Root().PersistentFlags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}

	logger := logpkg.New(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)

	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(cfg, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API server listening", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
