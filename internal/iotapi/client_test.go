package iotapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	require.NoError(t, err)
	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, "localhost:8000", u.Host)

	u, err = parseBaseURL("10.0.0.5:9000")
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:9000", u.String())

	u, err = parseBaseURL("https://example.com:1234/path/?x=1#frag")
	require.NoError(t, err)
	assert.Equal(t, "/path", u.Path)
	assert.Empty(t, u.RawQuery)
	assert.Empty(t, u.Fragment)
	assert.Equal(t, "https", u.Scheme)
}

func TestClient_KeepsBasePathPrefix(t *testing.T) {
	t.Parallel()

	var paths []string
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("[]"))
		}
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL + "/iot/")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/iot", client.BaseURL())

	_, err = client.ListDevices(context.Background(), 0, 10)
	require.NoError(t, err)
	require.NoError(t, client.DeleteAlert(context.Background(), "a1"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/iot/devices", "/iot/alerts/a1"}, paths)
}

func TestClient_ListEndpointsEncodeQueries(t *testing.T) {
	t.Parallel()

	var (
		gotDevicesQuery  url.Values
		gotAlertsQuery   url.Values
		gotReadingsQuery url.Values
		gotUserAgent     string
		gotRequestID     string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/devices":
			gotDevicesQuery = r.URL.Query()
			_ = json.NewEncoder(w).Encode([]Device{{ID: "d1", Name: "Boiler", IsActive: true}})
		case "/devices/stats/count":
			_ = json.NewEncoder(w).Encode(DeviceStats{Total: 4, Active: 3})
		case "/alerts":
			gotAlertsQuery = r.URL.Query()
			_ = json.NewEncoder(w).Encode([]Alert{{ID: "a1", Severity: SeverityHigh}})
		case "/alerts/stats/count":
			_ = json.NewEncoder(w).Encode(AlertStats{Total: 7, Unresolved: 2})
		case "/sensor-readings":
			gotReadingsQuery = r.URL.Query()
			_ = json.NewEncoder(w).Encode([]SensorReading{{ID: 9, SensorType: "temperature", Value: 21.5}})
		case "/health":
			_ = json.NewEncoder(w).Encode(HealthStatus{Status: "healthy"})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	devices, err := c.ListDevices(ctx, 10, 50)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "Boiler", devices[0].Name)
	assert.Equal(t, "10", gotDevicesQuery.Get("skip"))
	assert.Equal(t, "50", gotDevicesQuery.Get("limit"))

	dstats, err := c.GetDeviceStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, DeviceStats{Total: 4, Active: 3}, dstats)

	resolved := false
	alerts, err := c.ListAlerts(ctx, AlertQuery{DeviceID: "d1", IsResolved: &resolved, Limit: 100})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "d1", gotAlertsQuery.Get("device_id"))
	assert.Equal(t, "false", gotAlertsQuery.Get("is_resolved"))
	assert.Equal(t, "100", gotAlertsQuery.Get("limit"))
	assert.Empty(t, gotAlertsQuery.Get("skip"))

	astats, err := c.GetAlertStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, AlertStats{Total: 7, Unresolved: 2}, astats)

	readings, err := c.ListSensorReadings(ctx, ReadingQuery{DeviceID: "d1", SensorType: "temperature", Limit: 20})
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, "d1", gotReadingsQuery.Get("device_id"))
	assert.Equal(t, "temperature", gotReadingsQuery.Get("sensor_type"))
	assert.Equal(t, "20", gotReadingsQuery.Get("limit"))

	health, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)

	assert.True(t, strings.HasPrefix(gotUserAgent, "iotdash/"), "User-Agent = %q", gotUserAgent)
	assert.NotEmpty(t, gotRequestID)
}

func TestClient_Mutations(t *testing.T) {
	t.Parallel()

	var (
		deletedDevice string
		deletedAlert  string
		updateBody    map[string]any
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/devices/"):
			deletedDevice = strings.TrimPrefix(r.URL.Path, "/devices/")
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/alerts/"):
			deletedAlert = strings.TrimPrefix(r.URL.Path, "/alerts/")
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodPost && r.URL.Path == "/alerts/a1/resolve":
			_ = json.NewEncoder(w).Encode(Alert{ID: "a1", IsResolved: true, ResolvedAt: "2026-01-02T03:04:05"})
		case r.Method == http.MethodPut && r.URL.Path == "/devices/d1":
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &updateBody)
			_ = json.NewEncoder(w).Encode(Device{ID: "d1", IsActive: false})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.DeleteDevice(ctx, "d1"))
	assert.Equal(t, "d1", deletedDevice)

	require.NoError(t, c.DeleteAlert(ctx, "a9"))
	assert.Equal(t, "a9", deletedAlert)

	alert, err := c.ResolveAlert(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, alert.IsResolved)
	assert.False(t, alert.ParsedResolvedAt().IsZero())

	inactive := false
	device, err := c.UpdateDevice(ctx, "d1", DeviceUpdate{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, device.IsActive)
	assert.Equal(t, map[string]any{"is_active": false}, updateBody)
}

func TestClient_RequiresIDs(t *testing.T) {
	c, err := NewClient("127.0.0.1:1")
	require.NoError(t, err)
	ctx := context.Background()

	assert.Error(t, c.DeleteDevice(ctx, " "))
	assert.Error(t, c.DeleteAlert(ctx, ""))
	_, err = c.ResolveAlert(ctx, "")
	assert.Error(t, err)
	_, err = c.UpdateDevice(ctx, "", DeviceUpdate{})
	assert.Error(t, err)
}

func TestClient_NilClient(t *testing.T) {
	var c *Client
	_, err := c.ListDevices(context.Background(), 0, 10)
	assert.ErrorIs(t, err, ErrNilClient)
	assert.ErrorIs(t, c.DeleteAlert(context.Background(), "a1"), ErrNilClient)
}

func TestClient_ServerAndDecodeErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/devices":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not-json"))
		case "/alerts/missing":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Alert not found"}`))
		default:
			http.Error(w, "nope", http.StatusInternalServerError)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	require.NoError(t, err)

	_, err = c.ListDevices(context.Background(), 0, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")

	err = c.DeleteAlert(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "Alert not found")

	_, err = c.GetAlertStats(context.Background())
	require.Error(t, err)
	var srvErr *ServerError
	require.ErrorAs(t, err, &srvErr)
	assert.Equal(t, http.StatusInternalServerError, srvErr.StatusCode)
	assert.Equal(t, "nope", srvErr.Detail)
	assert.False(t, IsNetwork(err))
}

func TestClient_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	c, err := NewClient(addr, WithTimeout(time.Second))
	require.NoError(t, err)

	_, err = c.GetDeviceStats(context.Background())
	require.Error(t, err)
	assert.True(t, IsNetwork(err), "err = %v", err)
}

func TestClient_RetriesTransientGETs(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(DeviceStats{Total: 1, Active: 1})
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, WithRetries(2), WithRetryWait(time.Millisecond))
	require.NoError(t, err)

	stats, err := c.GetDeviceStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_DoesNotRetryClientErrorsOrMutations(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method == http.MethodGet {
			http.Error(w, "bad", http.StatusBadRequest)
			return
		}
		http.Error(w, "down", http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, WithRetries(3), WithRetryWait(time.Millisecond))
	require.NoError(t, err)

	_, err = c.ListAlerts(context.Background(), AlertQuery{})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	require.Error(t, c.DeleteDevice(context.Background(), "d1"))
	assert.Equal(t, int32(2), calls.Load())
}
