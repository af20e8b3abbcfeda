// Package config defines the single typed configuration structure the
// pipeline is built from. Values come from an optional TOML file and are
// overridden by command-line flags before validation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Search controls the matching pipeline.
type Search struct {
	MaxResults       int      `toml:"max_results"`
	MinSimilarity    int      `toml:"min_similarity"`
	IgnoredUploaders []string `toml:"ignored_uploaders"`
	KnownIDsPath     string   `toml:"known_ids_path"`
	PlaylistID       string   `toml:"playlist_id"`
	ClientName       string   `toml:"innertube_client"`
	ClientVersion    string   `toml:"innertube_client_version"`
	BotguardScript   string   `toml:"botguard_script"`
	BotguardCacheDir string   `toml:"botguard_cache_dir"`
}

// HTTP tunes the shared HTTP client.
type HTTP struct {
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Retries        int    `toml:"retries"`
	UserAgent      string `toml:"user_agent"`
	ProxyURL       string `toml:"proxy_url"`
}

// Logging controls log output.
type Logging struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	Timestamps bool   `toml:"timestamps"`
}

// Config is the complete runtime configuration.
type Config struct {
	Search  Search  `toml:"search"`
	HTTP    HTTP    `toml:"http"`
	Logging Logging `toml:"logging"`
}

// Default returns the documented defaults.
func Default() *Config {
	return &Config{
		Search: Search{
			MaxResults:    25,
			MinSimilarity: 0,
			KnownIDsPath:  "known_ids.json",
		},
		HTTP: HTTP{
			TimeoutSeconds: 30,
			Retries:        3,
		},
		Logging: Logging{
			Level:  "INFO",
			Format: "text",
		},
	}
}

// Load reads the TOML file at path over the defaults. An empty path returns
// the defaults; a missing file at an explicit path is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file %s does not exist", path)
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field ranges after flags have been merged in.
func (c *Config) Validate() error {
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("max_results must be positive, got %d", c.Search.MaxResults)
	}
	if c.Search.MinSimilarity < 0 || c.Search.MinSimilarity > 100 {
		return fmt.Errorf("min_similarity must be in [0,100], got %d", c.Search.MinSimilarity)
	}
	if c.HTTP.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must not be negative, got %d", c.HTTP.TimeoutSeconds)
	}
	if c.HTTP.Retries < 0 {
		return fmt.Errorf("retries must not be negative, got %d", c.HTTP.Retries)
	}
	return nil
}

// Sample returns the embedded annotated sample configuration.
func Sample() string {
	return sampleConfig
}
