package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	yaml "gopkg.in/yaml.v2"
)

// Config holds the dashboard's runtime settings.
type Config struct {
	APIURL         string
	PollInterval   time.Duration
	RequestTimeout time.Duration
	ChartWindow    int
	DeviceLimit    int
	AlertLimit     int
	ReadingLimit   int
	MaxRetries     int
	LogLevel       string
	LogFile        string
}

// EnvAPIURL overrides api_url when set.
const EnvAPIURL = "IOTDASH_API_URL"

const (
	defaultConfigPath     = "~/.config/iotdash/config.toml"
	defaultAPIURL         = "http://localhost:8000"
	defaultPollSeconds    = 30
	defaultTimeoutSeconds = 10
	defaultChartWindow    = 6
	defaultPageLimit      = 100
	defaultMaxRetries     = 2
	defaultLogLevel       = "info"
	defaultLogFile        = "~/.local/state/iotdash/iotdash.log"
)

// fileConfig is the on-disk shape. Pointers distinguish "unset" from zero.
type fileConfig struct {
	APIURL                string `toml:"api_url" yaml:"api_url"`
	PollSeconds           *int   `toml:"poll_seconds" yaml:"poll_seconds"`
	RequestTimeoutSeconds *int   `toml:"request_timeout_seconds" yaml:"request_timeout_seconds"`
	ChartWindow           *int   `toml:"chart_window" yaml:"chart_window"`
	DeviceLimit           *int   `toml:"device_limit" yaml:"device_limit"`
	AlertLimit            *int   `toml:"alert_limit" yaml:"alert_limit"`
	ReadingLimit          *int   `toml:"reading_limit" yaml:"reading_limit"`
	MaxRetries            *int   `toml:"max_retries" yaml:"max_retries"`
	LogLevel              string `toml:"log_level" yaml:"log_level"`
	LogFile               string `toml:"log_file" yaml:"log_file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIURL:         defaultAPIURL,
		PollInterval:   defaultPollSeconds * time.Second,
		RequestTimeout: defaultTimeoutSeconds * time.Second,
		ChartWindow:    defaultChartWindow,
		DeviceLimit:    defaultPageLimit,
		AlertLimit:     defaultPageLimit,
		ReadingLimit:   defaultPageLimit,
		MaxRetries:     defaultMaxRetries,
		LogLevel:       defaultLogLevel,
		LogFile:        mustExpand(defaultLogFile),
	}
}

// Load locates and parses the config, falling back to defaults when missing.
// Files ending in .yaml or .yml are parsed as YAML, everything else as TOML.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw fileConfig
	if isYAML(resolved) {
		err = yaml.Unmarshal(bytes, &raw)
	} else {
		err = toml.Unmarshal(bytes, &raw)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.merge(raw); err != nil {
		return Config{}, err
	}
	applyEnv(&cfg)
	return cfg, nil
}

func (c *Config) merge(raw fileConfig) error {
	if v := strings.TrimSpace(raw.APIURL); v != "" {
		c.APIURL = v
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		c.LogFile = mustExpand(v)
	}

	positive := []struct {
		key string
		src *int
		set func(int)
	}{
		{"poll_seconds", raw.PollSeconds, func(n int) { c.PollInterval = time.Duration(n) * time.Second }},
		{"request_timeout_seconds", raw.RequestTimeoutSeconds, func(n int) { c.RequestTimeout = time.Duration(n) * time.Second }},
		{"chart_window", raw.ChartWindow, func(n int) { c.ChartWindow = n }},
		{"device_limit", raw.DeviceLimit, func(n int) { c.DeviceLimit = n }},
		{"alert_limit", raw.AlertLimit, func(n int) { c.AlertLimit = n }},
		{"reading_limit", raw.ReadingLimit, func(n int) { c.ReadingLimit = n }},
	}
	for _, field := range positive {
		if field.src == nil {
			continue
		}
		if *field.src <= 0 {
			return fmt.Errorf("%s must be positive, got %d", field.key, *field.src)
		}
		field.set(*field.src)
	}

	if raw.MaxRetries != nil {
		if *raw.MaxRetries < 0 {
			return fmt.Errorf("max_retries must not be negative, got %d", *raw.MaxRetries)
		}
		c.MaxRetries = *raw.MaxRetries
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.APIURL = v
	}
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return defaultConfigPath
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
