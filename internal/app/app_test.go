package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/iotdash/internal/config"
)

func writeConfig(t *testing.T, apiURL string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	logPath := filepath.Join(dir, "state", "iotdash.log")
	cfgPath := filepath.Join(dir, "config.toml")
	body := fmt.Sprintf("api_url = %q\npoll_seconds = 45\nmax_retries = 0\nlog_level = \"debug\"\nlog_file = %q\n", apiURL, logPath)
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o644))
	return cfgPath, logPath
}

func TestNewRuntime_WiresConfig(t *testing.T) {
	t.Setenv(config.EnvAPIURL, "")
	cfgPath, logPath := writeConfig(t, "http://sensors.test:9000")

	rt, err := newRuntime(Options{
		ConfigPath: cfgPath,
		PrefsPath:  filepath.Join(t.TempDir(), "prefs.toml"),
	})
	require.NoError(t, err)
	defer rt.close()

	assert.Equal(t, 45*time.Second, rt.cfg.PollInterval)
	assert.Equal(t, 45*time.Second, rt.syncer.opts.Interval)
	assert.Equal(t, "http://sensors.test:9000", rt.client.BaseURL())
	assert.Equal(t, "Nightfox", rt.prefs.Theme)
	assert.FileExists(t, logPath)
}

func TestNewRuntime_PollOverride(t *testing.T) {
	t.Setenv(config.EnvAPIURL, "")
	cfgPath, _ := writeConfig(t, "http://sensors.test:9000")

	rt, err := newRuntime(Options{ConfigPath: cfgPath, PollEvery: 5, PrefsPath: filepath.Join(t.TempDir(), "p.toml")})
	require.NoError(t, err)
	defer rt.close()

	assert.Equal(t, 5*time.Second, rt.syncer.opts.Interval)
}

func TestNewRuntime_BadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("poll_seconds = \"soon\""), 0o644))

	_, err := newRuntime(Options{ConfigPath: path})
	assert.Error(t, err)
}

func TestPreflight(t *testing.T) {
	t.Setenv(config.EnvAPIURL, "")
	var healthy atomic.Bool
	healthy.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	cfgPath, logPath := writeConfig(t, srv.URL)
	rt, err := newRuntime(Options{ConfigPath: cfgPath, PrefsPath: filepath.Join(t.TempDir(), "p.toml")})
	require.NoError(t, err)
	defer rt.close()

	assert.True(t, rt.preflight(context.Background()))

	healthy.Store(false)
	assert.False(t, rt.preflight(context.Background()))

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "api health check failed")
	assert.Contains(t, string(data), "component=app")
}
