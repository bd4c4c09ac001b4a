package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pratik-anurag/porter/internal/monitor"
	"github.com/pratik-anurag/porter/internal/sys"
)

// Config holds every user-tunable setting.
type Config struct {
	PollInterval   time.Duration `yaml:"poll_interval"`
	LsofPath       string        `yaml:"lsof_path"`
	KillPath       string        `yaml:"kill_path"`
	Elevation      string        `yaml:"elevation"`
	Sort           string        `yaml:"sort"`
	CommandTimeout time.Duration `yaml:"command_timeout"`
	LogLevel       string        `yaml:"log_level"`
	LogFile        string        `yaml:"log_file"`
	Color          string        `yaml:"color"`
}

// Default returns the built-in configuration. Empty paths are resolved per
// platform at startup.
func Default() *Config {
	return &Config{
		PollInterval: monitor.DefaultInterval,
		Elevation:    string(sys.ElevateAuto),
		Sort:         monitor.DefaultSort.String(),
		LogLevel:     "info",
		LogFile:      filepath.Join(os.TempDir(), "porter.log"),
		Color:        "auto",
	}
}

// DefaultPath is ~/.config/porter/config.yaml (or the OS equivalent).
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "porter", "config.yaml")
}

// Load reads path over the defaults. An empty path means DefaultPath.
// A missing file yields defaults; invalid YAML or values are errors.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later.
func (c *Config) Validate() error {
	if c.PollInterval < 0 {
		return fmt.Errorf("poll_interval must not be negative")
	}
	if c.CommandTimeout < 0 {
		return fmt.Errorf("command_timeout must not be negative")
	}
	if _, err := sys.ParseElevation(c.Elevation); err != nil {
		return err
	}
	if _, err := monitor.ParseSortSpec(c.Sort); err != nil {
		return err
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.Color) {
	case "", "auto", "always", "never":
	default:
		return fmt.Errorf("color must be auto, always or never")
	}
	return nil
}

// SortSpec returns the parsed sort, falling back to the default.
func (c *Config) SortSpec() monitor.SortSpec {
	spec, err := monitor.ParseSortSpec(c.Sort)
	if err != nil || len(spec) == 0 {
		return monitor.DefaultSort
	}
	return spec
}

// ElevationMode returns the parsed elevation, falling back to auto.
func (c *Config) ElevationMode() sys.Elevation {
	e, err := sys.ParseElevation(c.Elevation)
	if err != nil {
		return sys.ElevateAuto
	}
	return e
}

// ParseLevel maps debug|info|warn|error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q (debug|info|warn|error)", s)
}
