// Package config loads the importer's configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding the config file.
const (
	EnvDatabaseURL = "DATABASE_URL"
	EnvDump        = "DEWIKTIONARY_DUMP"
)

// DefaultDump is the dump file name wikimedia publishes.
const DefaultDump = "dewiktionary-latest-pages-articles-multistream.xml.bz2"

// Config is the complete importer configuration.
type Config struct {
	Dump     DumpConfig     `yaml:"dump"`
	Database DatabaseConfig `yaml:"database"`
	Import   ImportConfig   `yaml:"import"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// DumpConfig says where the dump is.
type DumpConfig struct {
	// File is the dump file (.xml, .xml.bz2, .xml.gz or .xml.zst).
	File string `yaml:"file"`
	// Index is the multistream index file. When set, File is read as
	// a multistream dump.
	Index string `yaml:"index"`
	// Workers is the number of multistream decoding workers.
	Workers int `yaml:"workers"`
}

// DatabaseConfig configures the SQLite database.
type DatabaseConfig struct {
	// URL is the path of the database file.
	URL string `yaml:"url"`
}

// ImportConfig tunes the importer.
type ImportConfig struct {
	// ReportEvery logs throughput every this many pages (0 = never).
	ReportEvery int64 `yaml:"report_every"`
	// ReadAhead is how many pages are decoded ahead of the scanner
	// (0 = decode and scan in turn).
	ReadAhead int `yaml:"read_ahead"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is text or json.
	Format string `yaml:"format"`
}

// MetricsConfig configures the prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address (empty = no endpoint).
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a Config with defaults filled in.
func DefaultConfig() *Config {
	return &Config{
		Dump: DumpConfig{
			File:    DefaultDump,
			Workers: 4,
		},
		Import: ImportConfig{
			ReportEvery: 1000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadFromFile reads a YAML config file on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user supplied config path
	if err != nil {
		return nil, err
	}

	c := DefaultConfig()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return c, nil
}

// Load builds the configuration from the defaults, the YAML file at
// path (if path isn't empty), a .env file in the working directory (if
// there is one) and the environment, in that order of precedence.
func Load(path string) (*Config, error) {
	c := DefaultConfig()
	if path != "" {
		var err error
		c, err = LoadFromFile(path)
		if err != nil {
			return nil, err
		}
	}

	// .env never overrides variables that are already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	c.ApplyEnv()
	return c, nil
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv(EnvDump); v != "" {
		c.Dump.File = v
	}
}

// RequireDatabase reports a missing database setting.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required (or set %s)", EnvDatabaseURL)
	}
	return nil
}

// Validate checks that the configuration is usable for reading a dump.
func (c *Config) Validate() error {
	var errs []error
	if c.Dump.File == "" {
		errs = append(errs, errors.New("dump.file is required"))
	}
	if c.Dump.Workers < 1 {
		errs = append(errs, errors.New("dump.workers must be at least 1"))
	}
	if c.Import.ReportEvery < 0 {
		errs = append(errs, errors.New("import.report_every must not be negative"))
	}
	if c.Import.ReadAhead < 0 {
		errs = append(errs, errors.New("import.read_ahead must not be negative"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of text, json", c.Log.Format))
	}
	return errors.Join(errs...)
}
