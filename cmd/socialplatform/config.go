// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SocialPlatform Contributors

package main

import (
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Default values for serve flags.
const (
	defaultHTTPAddr    = "localhost:4000"
	defaultMetricsAddr = "127.0.0.1:9100"
	defaultCookieName  = "qid"
	defaultSessionTTL  = 7 * 24 * time.Hour
	defaultLogFormat   = "json"
)

// serveConfig holds configuration for the serve command. Values come
// from flag defaults, then the optional YAML config file, then any
// flags set on the command line, in that order of precedence
// (lowest first). DATABASE_URL from the environment backs the
// database-url key.
type serveConfig struct {
	Addr           string        `koanf:"addr"`
	MetricsAddr    string        `koanf:"metrics-addr"`
	DatabaseURL    string        `koanf:"database-url"`
	CookieName     string        `koanf:"cookie-name"`
	CookieSecure   bool          `koanf:"cookie-secure"`
	SessionTTL     time.Duration `koanf:"session-ttl"`
	LogFormat      string        `koanf:"log-format"`
	Dev            bool          `koanf:"dev"`
	AllowedOrigins []string      `koanf:"allowed-origins"`
}

// Validate checks that the configuration is consistent.
func (cfg *serveConfig) Validate() error {
	if cfg.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("addr is required")
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").Errorf("log-format must be 'json' or 'text', got %q", cfg.LogFormat)
	}
	if cfg.SessionTTL <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("session-ttl must be positive")
	}
	if !cfg.Dev && cfg.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database-url (or DATABASE_URL) is required unless --dev is set")
	}
	return nil
}

// registerServeFlags declares the serve flags whose defaults seed the
// configuration.
func registerServeFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "YAML config file path")
	flags.String("addr", defaultHTTPAddr, "HTTP listen address")
	flags.String("metrics-addr", defaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	flags.String("database-url", "", "PostgreSQL connection URL (default: DATABASE_URL env)")
	flags.String("cookie-name", defaultCookieName, "session cookie name")
	flags.Bool("cookie-secure", false, "mark the session cookie Secure")
	flags.Duration("session-ttl", defaultSessionTTL, "session lifetime")
	flags.String("log-format", defaultLogFormat, "log format (json or text)")
	flags.Bool("dev", false, "run with in-memory storage, no database required")
	flags.StringSlice("allowed-origins", nil, "CORS origins allowed to call the API with credentials")
}

// loadServeConfig merges the config file and flags into a serveConfig.
func loadServeConfig(flags *pflag.FlagSet) (*serveConfig, error) {
	k := koanf.New(".")

	if path, _ := flags.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	// Passing k lets the provider skip unchanged flags whose keys the
	// config file already set.
	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").
			With("operation", "merge flags").
			Wrap(err)
	}

	var cfg serveConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").
			With("operation", "unmarshal config").
			Wrap(err)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
