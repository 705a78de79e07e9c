// Copyright 2026 The JobFunnel Authors
// SPDX-License-Identifier: Apache-2.0

// funnel-service is the backend for the job search funnel tracker. It
// stores users, applications, and the stage catalog in SQLite and
// serves them over HTTP for funnel-board (and the web frontend).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/jobfunnel/jobfunnel/lib/server"
	"github.com/jobfunnel/jobfunnel/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var listen string
	var dataDir string
	var frontendOrigin string
	var devMode bool
	var logLevel string

	flagSet := pflag.NewFlagSet("funnel-service", pflag.ContinueOnError)
	flagSet.StringVar(&listen, "listen", "127.0.0.1:8000", "address to listen on")
	flagSet.StringVar(&dataDir, "data-dir", defaultDataDir(), "directory for the SQLite database")
	flagSet.StringVar(&frontendOrigin, "frontend-origin", "http://localhost:5173", "origin allowed by CORS and the dev-login redirect target")
	flagSet.BoolVar(&devMode, "dev", false, "enable the X-User-Id header and GET /auth/login (local development only)")
	flagSet.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flagSet.BoolP("help", "h", false, "show help")

	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("funnel-service")
		return nil
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("unknown log level %q", logLevel)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	store, err := server.OpenStore(dataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("closing storage", "error", err)
		}
	}()

	handler := server.New(store, server.Config{
		FrontendOrigin: frontendOrigin,
		DevMode:        devMode,
		Logger:         logger,
	})

	httpServer := &http.Server{
		Addr:    listen,
		Handler: handler,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("funnel-service listening",
			"addr", listen,
			"data_dir", dataDir,
			"dev_mode", devMode,
			"version", version.Short(),
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home + "/.local/share/jobfunnel"
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Job search funnel backend — HTTP service over SQLite.

Serves the stage catalog, per-user application records, and the funnel
metrics aggregate. Sign-in uses cookie sessions; with --dev the
X-User-Id header and GET /auth/login?email=... work for local setups
without an OAuth provider.

Usage:
  funnel-service [flags]

Examples:
  # Local development backend with dev auth
  funnel-service --dev

  # Explicit listen address and data directory
  funnel-service --listen 0.0.0.0:8000 --data-dir /var/lib/jobfunnel

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
