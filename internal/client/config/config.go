// Package config loads the terminal client configuration. Values come from
// defaults, then an optional JSON file, then command-line flags; later
// sources take precedence.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"
)

// Config holds runtime settings for the actilog terminal client.
type Config struct {
	// ServerURL is the base URL of the actilog API server.
	ServerURL string
	// DatabasePath is the sqlite file backing the offline queue and prefs.
	DatabasePath string
	// OnlineCheckInterval is how often the watcher probes connectivity.
	OnlineCheckInterval time.Duration
	// QueueLimit bounds the offline queue; enqueueing past it fails.
	QueueLimit int
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		ServerURL:           "http://localhost:8080",
		DatabasePath:        "actilog.db",
		OnlineCheckInterval: 30 * time.Second,
		QueueLimit:          1000,
	}
}

// fileConfig is the JSON shape of a config file. Intervals are seconds.
type fileConfig struct {
	ServerURL           string `json:"server_url"`
	DatabasePath        string `json:"database_path"`
	OnlineCheckInterval int    `json:"online_check_interval_seconds"`
	QueueLimit          int    `json:"queue_limit"`
}

// Load builds the client configuration: defaults, overlaid by the JSON file
// named via -config (if any), overlaid by explicitly set flags.
func Load(args []string) (*Config, error) {
	cfg := New()

	fs := flag.NewFlagSet("actilog", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a JSON config file")
	serverURL := fs.String("s", cfg.ServerURL, "base URL of the actilog server")
	dbPath := fs.String("d", cfg.DatabasePath, "path to the local queue database")
	interval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "connectivity check interval in seconds")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *configPath != "" {
		if err := cfg.applyFile(*configPath); err != nil {
			return nil, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "s":
			cfg.ServerURL = *serverURL
		case "d":
			cfg.DatabasePath = *dbPath
		case "i":
			cfg.OnlineCheckInterval = time.Duration(*interval) * time.Second
		}
	})

	if cfg.OnlineCheckInterval <= 0 {
		return nil, fmt.Errorf("online check interval must be positive")
	}
	if cfg.QueueLimit <= 0 {
		return nil, fmt.Errorf("queue limit must be positive")
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if fc.ServerURL != "" {
		c.ServerURL = fc.ServerURL
	}
	if fc.DatabasePath != "" {
		c.DatabasePath = fc.DatabasePath
	}
	if fc.OnlineCheckInterval > 0 {
		c.OnlineCheckInterval = time.Duration(fc.OnlineCheckInterval) * time.Second
	}
	if fc.QueueLimit > 0 {
		c.QueueLimit = fc.QueueLimit
	}
	return nil
}
