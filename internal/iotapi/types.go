package iotapi

import (
	"strings"
	"time"
)

// naiveTimestampLayout matches the timezone-less ISO timestamps the analytics
// backend emits for its UTC columns.
const naiveTimestampLayout = "2006-01-02T15:04:05.999999999"

// Device mirrors the device resource served by /devices.
type Device struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Location   string   `json:"location"`
	DeviceType string   `json:"device_type"`
	Status     string   `json:"status"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	IsActive   bool     `json:"is_active"`
	CreatedAt  string   `json:"created_at"`
	UpdatedAt  string   `json:"updated_at"`
}

// HasCoordinates reports whether both latitude and longitude are known.
func (d Device) HasCoordinates() bool {
	return d.Latitude != nil && d.Longitude != nil
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (d Device) ParsedCreatedAt() time.Time {
	return parseTime(d.CreatedAt)
}

// ParsedUpdatedAt returns the parsed UpdatedAt timestamp.
func (d Device) ParsedUpdatedAt() time.Time {
	return parseTime(d.UpdatedAt)
}

// DeviceUpdate is the partial payload accepted by PUT /devices/{id}.
type DeviceUpdate struct {
	Name      *string  `json:"name,omitempty"`
	Location  *string  `json:"location,omitempty"`
	Status    *string  `json:"status,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	IsActive  *bool    `json:"is_active,omitempty"`
}

// DeviceStats mirrors /devices/stats/count.
type DeviceStats struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

// Severity ranks how urgent an alert is.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Rank orders severities LOW < MEDIUM < HIGH < CRITICAL. Unknown values rank 0.
func (s Severity) Rank() int {
	switch Severity(strings.ToUpper(strings.TrimSpace(string(s)))) {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// Less reports whether s is less severe than other.
func (s Severity) Less(other Severity) bool {
	return s.Rank() < other.Rank()
}

// Alert mirrors the alert resource served by /alerts.
type Alert struct {
	ID             string   `json:"id"`
	DeviceID       string   `json:"device_id"`
	AlertType      string   `json:"alert_type"`
	Severity       Severity `json:"severity"`
	Message        string   `json:"message"`
	ThresholdValue *float64 `json:"threshold_value,omitempty"`
	ActualValue    *float64 `json:"actual_value,omitempty"`
	IsResolved     bool     `json:"is_resolved"`
	CreatedAt      string   `json:"created_at"`
	ResolvedAt     string   `json:"resolved_at,omitempty"`
}

// HasMeasurement reports whether the alert carries a threshold/actual pair.
func (a Alert) HasMeasurement() bool {
	return a.ThresholdValue != nil && a.ActualValue != nil
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (a Alert) ParsedCreatedAt() time.Time {
	return parseTime(a.CreatedAt)
}

// ParsedResolvedAt returns the parsed ResolvedAt timestamp, zero when unresolved.
func (a Alert) ParsedResolvedAt() time.Time {
	return parseTime(a.ResolvedAt)
}

// MarkResolved returns a copy of the alert flagged as resolved at the given
// time. An alert that is already resolved keeps its original timestamp.
func (a Alert) MarkResolved(at time.Time) Alert {
	if a.IsResolved && a.ResolvedAt != "" {
		return a
	}
	a.IsResolved = true
	a.ResolvedAt = at.UTC().Format(time.RFC3339Nano)
	return a
}

// AlertStats mirrors /alerts/stats/count.
type AlertStats struct {
	Total      int `json:"total"`
	Unresolved int `json:"unresolved"`
}

// SensorReading mirrors the reading resource served by /sensor-readings.
type SensorReading struct {
	ID         int64   `json:"id"`
	DeviceID   string  `json:"device_id"`
	SensorType string  `json:"sensor_type"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit"`
	Timestamp  string  `json:"timestamp"`
	CreatedAt  string  `json:"created_at"`
}

// ParsedTimestamp returns the sample time, zero when it cannot be parsed.
func (r SensorReading) ParsedTimestamp() time.Time {
	return parseTime(r.Timestamp)
}

// HealthStatus mirrors /health.
type HealthStatus struct {
	Status string `json:"status"`
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(naiveTimestampLayout, value, time.UTC); err == nil {
		return t
	}
	return time.Time{}
}
