// Copyright 2026 The JobFunnel Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the board client.
//
// Configuration comes from a single JSONC file specified by:
//   - the --config flag passed to the command, or
//   - the FUNNEL_CONFIG environment variable.
//
// There are no fallbacks or automatic discovery. When neither is set,
// the built-in defaults apply. Flags and the FUNNEL_API_URL variable
// override file values; that merge happens in the command, not here.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/jobfunnel/jobfunnel/lib/stage"
)

// Config holds the board client's settings.
type Config struct {
	// APIURL is the base URL of the backend service.
	APIURL string `json:"api_url"`

	// Language selects the display language, "ru" or "en".
	Language string `json:"language"`

	// LogOutput is a file path for JSON log records. Empty disables
	// logging; the TUI owns the terminal, so logs never go to stderr.
	LogOutput string `json:"log_output"`

	// DevUserID, when non-zero, is sent as the X-User-Id header on
	// every request. Only honored by backends running in dev mode.
	DevUserID int `json:"dev_user_id"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIURL:   "http://localhost:8000",
		Language: string(stage.Russian),
	}
}

// Load reads the configuration file at path, or at $FUNNEL_CONFIG when
// path is empty. With neither set it returns Default(). The file is
// JSONC: // comments, /* block comments */, and trailing commas are
// allowed.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv("FUNNEL_CONFIG")
	}
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values. Called by Load; exposed for configs
// assembled from flags.
func (cfg Config) Validate() error {
	if cfg.APIURL == "" {
		return fmt.Errorf("api_url must not be empty")
	}
	switch stage.Language(cfg.Language) {
	case stage.Russian, stage.English:
		return nil
	}
	return fmt.Errorf("language must be %q or %q, got %q", stage.Russian, stage.English, cfg.Language)
}
