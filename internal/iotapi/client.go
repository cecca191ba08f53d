package iotapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Fetcher is the subset of the analytics API the dashboard consumes.
// It is implemented by *Client and faked in tests.
type Fetcher interface {
	ListDevices(ctx context.Context, skip, limit int) ([]Device, error)
	GetDeviceStats(ctx context.Context) (DeviceStats, error)
	UpdateDevice(ctx context.Context, id string, update DeviceUpdate) (*Device, error)
	DeleteDevice(ctx context.Context, id string) error
	ListAlerts(ctx context.Context, query AlertQuery) ([]Alert, error)
	GetAlertStats(ctx context.Context) (AlertStats, error)
	ResolveAlert(ctx context.Context, id string) (*Alert, error)
	DeleteAlert(ctx context.Context, id string) error
	ListSensorReadings(ctx context.Context, query ReadingQuery) ([]SensorReading, error)
}

// Ensure Client implements Fetcher at compile time.
var _ Fetcher = (*Client)(nil)

// Client talks to the IoT analytics HTTP API.
type Client struct {
	baseURL    *url.URL
	http       *http.Client
	userAgent  string
	maxRetries int
	retryWait  time.Duration
	log        *logrus.Entry
}

const (
	defaultAPIURL     = "http://localhost:8000"
	defaultUserAgent  = "iotdash/0.1"
	defaultTimeout    = 10 * time.Second
	defaultRetryWait  = 250 * time.Millisecond
	maxRetryWait      = 2 * time.Second
	errorBodyMaxBytes = 4 << 10
)

// Option customises a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout of the underlying http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRetries sets how many times an idempotent GET is retried after a
// network failure or a 5xx response.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithRetryWait sets the initial backoff between retries.
func WithRetryWait(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.retryWait = d
		}
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(entry *logrus.Entry) Option {
	return func(c *Client) {
		if entry != nil {
			c.log = entry
		}
	}
}

// NewClient builds a Client for the API rooted at apiURL.
func NewClient(apiURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	c := &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: defaultTimeout},
		userAgent: defaultUserAgent,
		retryWait: defaultRetryWait,
		log:       logrus.NewEntry(discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	if c == nil {
		return ""
	}
	return c.baseURL.String()
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	if c == nil {
		return HealthStatus{}, ErrNilClient
	}
	var payload HealthStatus
	if err := c.get(ctx, "/health", nil, &payload); err != nil {
		return HealthStatus{}, err
	}
	return payload, nil
}

// ListDevices retrieves a page of devices.
func (c *Client) ListDevices(ctx context.Context, skip, limit int) ([]Device, error) {
	if c == nil {
		return nil, ErrNilClient
	}
	var payload []Device
	if err := c.get(ctx, "/devices", pageValues(skip, limit), &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// GetDeviceStats retrieves the total/active device counters.
func (c *Client) GetDeviceStats(ctx context.Context) (DeviceStats, error) {
	if c == nil {
		return DeviceStats{}, ErrNilClient
	}
	var payload DeviceStats
	if err := c.get(ctx, "/devices/stats/count", nil, &payload); err != nil {
		return DeviceStats{}, err
	}
	return payload, nil
}

// UpdateDevice applies a partial update and returns the stored device.
func (c *Client) UpdateDevice(ctx context.Context, id string, update DeviceUpdate) (*Device, error) {
	if c == nil {
		return nil, ErrNilClient
	}
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("device id required")
	}
	var payload Device
	if err := c.send(ctx, http.MethodPut, "/devices/"+url.PathEscape(id), update, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// DeleteDevice removes a device.
func (c *Client) DeleteDevice(ctx context.Context, id string) error {
	if c == nil {
		return ErrNilClient
	}
	if strings.TrimSpace(id) == "" {
		return errors.New("device id required")
	}
	return c.send(ctx, http.MethodDelete, "/devices/"+url.PathEscape(id), nil, nil)
}

// AlertQuery configures /alerts requests.
type AlertQuery struct {
	DeviceID   string
	IsResolved *bool
	Skip       int
	Limit      int
}

// ListAlerts retrieves alerts, optionally filtered by device and resolution.
func (c *Client) ListAlerts(ctx context.Context, query AlertQuery) ([]Alert, error) {
	if c == nil {
		return nil, ErrNilClient
	}
	values := pageValues(query.Skip, query.Limit)
	if id := strings.TrimSpace(query.DeviceID); id != "" {
		values.Set("device_id", id)
	}
	if query.IsResolved != nil {
		values.Set("is_resolved", strconv.FormatBool(*query.IsResolved))
	}
	var payload []Alert
	if err := c.get(ctx, "/alerts", values, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// GetAlertStats retrieves the total/unresolved alert counters.
func (c *Client) GetAlertStats(ctx context.Context) (AlertStats, error) {
	if c == nil {
		return AlertStats{}, ErrNilClient
	}
	var payload AlertStats
	if err := c.get(ctx, "/alerts/stats/count", nil, &payload); err != nil {
		return AlertStats{}, err
	}
	return payload, nil
}

// ResolveAlert marks an alert resolved and returns the stored alert.
func (c *Client) ResolveAlert(ctx context.Context, id string) (*Alert, error) {
	if c == nil {
		return nil, ErrNilClient
	}
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("alert id required")
	}
	var payload Alert
	if err := c.send(ctx, http.MethodPost, "/alerts/"+url.PathEscape(id)+"/resolve", nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// DeleteAlert removes an alert.
func (c *Client) DeleteAlert(ctx context.Context, id string) error {
	if c == nil {
		return ErrNilClient
	}
	if strings.TrimSpace(id) == "" {
		return errors.New("alert id required")
	}
	return c.send(ctx, http.MethodDelete, "/alerts/"+url.PathEscape(id), nil, nil)
}

// ReadingQuery configures /sensor-readings requests.
type ReadingQuery struct {
	DeviceID   string
	SensorType string
	Skip       int
	Limit      int
}

// ListSensorReadings retrieves readings for a device and sensor type.
func (c *Client) ListSensorReadings(ctx context.Context, query ReadingQuery) ([]SensorReading, error) {
	if c == nil {
		return nil, ErrNilClient
	}
	values := pageValues(query.Skip, query.Limit)
	if id := strings.TrimSpace(query.DeviceID); id != "" {
		values.Set("device_id", id)
	}
	if sensor := strings.TrimSpace(query.SensorType); sensor != "" {
		values.Set("sensor_type", sensor)
	}
	var payload []SensorReading
	if err := c.get(ctx, "/sensor-readings", values, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// get issues an idempotent GET, retrying transient failures with
// exponential backoff.
func (c *Client) get(ctx context.Context, path string, values url.Values, dest any) error {
	rel := &url.URL{Path: path}
	if len(values) > 0 {
		rel.RawQuery = values.Encode()
	}
	if c.maxRetries == 0 {
		return c.doURL(ctx, http.MethodGet, rel, nil, dest)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryWait
	policy.MaxInterval = maxRetryWait

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := c.doURL(ctx, http.MethodGet, rel, nil, dest)
		if err == nil {
			return struct{}{}, nil
		}
		if ctx.Err() != nil || !retryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		c.log.WithError(err).WithField("attempt", attempt).Debug("retrying request")
		return struct{}{}, err
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(uint(c.maxRetries+1)))
	return err
}

func (c *Client) send(ctx context.Context, method, path string, body, dest any) error {
	return c.doURL(ctx, method, &url.URL{Path: path}, body, dest)
}

// resolve appends rel to the base URL, keeping any path prefix the API is
// mounted under.
func (c *Client) resolve(rel *url.URL) *url.URL {
	u := *c.baseURL
	u.Path = c.baseURL.Path + rel.Path
	u.RawQuery = rel.RawQuery
	return &u
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	reqURL := c.resolve(rel)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Method: method, Path: rel.Path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.WithFields(logrus.Fields{
		"method":   method,
		"path":     rel.Path,
		"status":   resp.StatusCode,
		"duration": time.Since(started).Round(time.Millisecond).String(),
	}).Debug("api request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ServerError{
			Method:     method,
			Path:       rel.Path,
			StatusCode: resp.StatusCode,
			Detail:     readErrorDetail(resp.Body),
		}
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

// readErrorDetail extracts the FastAPI {"detail": ...} message when present.
func readErrorDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, errorBodyMaxBytes))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if detail, ok := payload.Detail.(string); ok {
			return detail
		}
	}
	return strings.TrimSpace(string(raw))
}

func pageValues(skip, limit int) url.Values {
	values := url.Values{}
	if skip > 0 {
		values.Set("skip", strconv.Itoa(skip))
	}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	return values
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, errors.Wrapf(err, "parse api url %q", apiURL)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
