// Package config loads specref.yaml, the project configuration discovered
// upward from the analyzed document.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file name.
const FileName = "specref.yaml"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config is the specref.yaml configuration.
type Config struct {
	Format           string `yaml:"format,omitempty"             json:"format,omitempty"`
	Trace            string `yaml:"trace,omitempty"              json:"trace,omitempty"`
	WarningsAsErrors bool   `yaml:"warnings_as_errors,omitempty" json:"warnings_as_errors,omitempty"`
	LogLevel         string `yaml:"log_level,omitempty"          json:"log_level,omitempty"`

	// Root is the absolute path to the directory containing specref.yaml.
	// Set after loading/discovery, not from YAML.
	Root string `yaml:"-" json:"-"`
}

// Default returns the configuration used when no specref.yaml is found.
func Default() *Config {
	return &Config{Format: FormatText, LogLevel: "warn"}
}

// LoadFile reads and parses a specref.yaml file. Unset fields keep their
// defaults; a relative trace path is resolved against the file's directory.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	defer f.Close()

	cfg := Default()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	cfg.Root = filepath.Dir(path)
	if cfg.Trace != "" && !filepath.IsAbs(cfg.Trace) {
		cfg.Trace = filepath.Join(cfg.Root, cfg.Trace)
	}
	return cfg, nil
}

// Discover walks up from startPath to find the nearest specref.yaml.
// Returns nil (no error) if none is found; the caller should use Default.
func Discover(startPath string) (*Config, error) {
	abs, err := filepath.Abs(startPath)
	if err != nil {
		return nil, err
	}

	// If startPath is a file, start from its directory
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	dir := abs
	if !info.IsDir() {
		dir = filepath.Dir(abs)
	}

	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return LoadFile(candidate)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// DiscoverOrDefault is Discover falling back to Default.
func DiscoverOrDefault(startPath string) (*Config, error) {
	cfg, err := Discover(startPath)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return Default(), nil
	}
	return cfg, nil
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch c.Format {
	case "", FormatText, FormatJSON:
	default:
		return fmt.Errorf("invalid format %q: must be text or json", c.Format)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a log_level value to a slog level. Empty means warn.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log_level %q: must be debug, info, warn, or error", s)
	}
}

// NewLogger returns a text logger writing to w at the configured level.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
