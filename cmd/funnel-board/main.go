// Copyright 2026 The JobFunnel Authors
// SPDX-License-Identifier: Apache-2.0

// funnel-board is the interactive terminal UI for the job search
// funnel tracker. It connects to a funnel-service backend, renders
// the kanban board with the metrics dashboard, and supports moving
// applications between stages by pointer drag, per-card dropdown, or
// keyboard.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/jobfunnel/jobfunnel/lib/api"
	"github.com/jobfunnel/jobfunnel/lib/boardui"
	"github.com/jobfunnel/jobfunnel/lib/config"
	"github.com/jobfunnel/jobfunnel/lib/session"
	"github.com/jobfunnel/jobfunnel/lib/stage"
	"github.com/jobfunnel/jobfunnel/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var apiURL string
	var lang string
	var logOutput string

	flagSet := pflag.NewFlagSet("funnel-board", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to a JSONC config file (default: $FUNNEL_CONFIG)")
	flagSet.StringVar(&apiURL, "api-url", "", "backend base URL (overrides config and $FUNNEL_API_URL)")
	flagSet.StringVar(&lang, "lang", "", "display language, ru or en (overrides config)")
	flagSet.StringVar(&logOutput, "log-output", "", "write JSON log records to this file")
	flagSet.BoolP("help", "h", false, "show help")

	// Handle --version before flag parsing to match the service binary.
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("funnel-board")
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

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if env := os.Getenv("FUNNEL_API_URL"); env != "" {
		cfg.APIURL = env
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	if lang != "" {
		cfg.Language = lang
	}
	if logOutput != "" {
		cfg.LogOutput = logOutput
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// The TUI owns the terminal; log records go to a file or nowhere.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if cfg.LogOutput != "" {
		file, err := os.Create(cfg.LogOutput)
		if err != nil {
			return fmt.Errorf("opening log file %s: %w", cfg.LogOutput, err)
		}
		defer file.Close()
		logger = slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	var options []api.Option
	if cfg.DevUserID != 0 {
		options = append(options, api.WithDevUser(cfg.DevUserID))
	}
	client := api.NewClient(cfg.APIURL, options...)

	boardSession := session.New(client, logger)
	model := boardui.New(boardSession, client.BaseURL(), stage.Language(cfg.Language), logger)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseAllMotion())
	_, err = program.Run()
	return err
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Job search funnel board — interactive terminal kanban.

Connects to a funnel-service backend and shows your applications as
cards in stage columns, with a metrics dashboard on top. Drag a card
to a column (or use its stage dropdown, or the m key) to move it.

Usage:
  funnel-board [flags]

Examples:
  # Connect to the default local backend
  funnel-board

  # Use a remote backend in English
  funnel-board --api-url https://funnel.example.com --lang en

  # Local development against a dev-mode backend, as user 1
  FUNNEL_CONFIG=dev.jsonc funnel-board

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
