package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvAPIURL, "")

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, defaultAPIURL)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Fatalf("PollInterval = %v, want 30s", cfg.PollInterval)
	}
	if cfg.ChartWindow != 6 || cfg.DeviceLimit != 100 || cfg.MaxRetries != 2 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}

	wantLog, err := expandPath(defaultLogFile)
	if err != nil {
		t.Fatalf("expandPath(defaultLogFile) returned error: %v", err)
	}
	if cfg.LogFile != wantLog {
		t.Fatalf("LogFile = %q, want %q", cfg.LogFile, wantLog)
	}
}

func TestLoad_ParsesTOML(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvAPIURL, "")

	path := writeFile(t, "config.toml", `
api_url = "  http://10.0.0.5:9000  "
poll_seconds = 5
chart_window = 12
max_retries = 0
log_level = "DEBUG"
log_file = "  ~/logs/dash.log  "
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "http://10.0.0.5:9000" {
		t.Fatalf("APIURL = %q", cfg.APIURL)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Fatalf("PollInterval = %v, want 5s", cfg.PollInterval)
	}
	if cfg.ChartWindow != 12 {
		t.Fatalf("ChartWindow = %d, want 12", cfg.ChartWindow)
	}
	if cfg.MaxRetries != 0 {
		t.Fatalf("MaxRetries = %d, want 0", cfg.MaxRetries)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.LogFile != filepath.Join(home, "logs", "dash.log") {
		t.Fatalf("LogFile = %q", cfg.LogFile)
	}
	// Unset keys keep defaults.
	if cfg.RequestTimeout != 10*time.Second || cfg.ReadingLimit != 100 {
		t.Fatalf("defaults not preserved: %+v", cfg)
	}
}

func TestLoad_ParsesYAML(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	path := writeFile(t, "config.yml", `
api_url: http://sensors.local:8000
request_timeout_seconds: 3
alert_limit: 25
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "http://sensors.local:8000" {
		t.Fatalf("APIURL = %q", cfg.APIURL)
	}
	if cfg.RequestTimeout != 3*time.Second {
		t.Fatalf("RequestTimeout = %v, want 3s", cfg.RequestTimeout)
	}
	if cfg.AlertLimit != 25 {
		t.Fatalf("AlertLimit = %d, want 25", cfg.AlertLimit)
	}
}

func TestLoad_EnvOverridesAPIURL(t *testing.T) {
	path := writeFile(t, "config.toml", `api_url = "http://file:8000"`)
	t.Setenv(EnvAPIURL, "http://env:8000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "http://env:8000" {
		t.Fatalf("APIURL = %q, want env override", cfg.APIURL)
	}

	cfg, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "http://env:8000" {
		t.Fatalf("APIURL = %q, want env override without file", cfg.APIURL)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"zero poll", "poll_seconds = 0", "poll_seconds"},
		{"negative window", "chart_window = -1", "chart_window"},
		{"negative retries", "max_retries = -2", "max_retries"},
		{"bad toml", "api_url = ", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "config.toml", tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/x/y")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	if got != filepath.Join(home, "x", "y") {
		t.Fatalf("expandPath = %q", got)
	}
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath on blank should error")
	}
}
