// Package iotapi provides an HTTP client for the IoT analytics API.
//
// # Overview
//
// The analytics backend exposes device, alert, and sensor-reading resources
// plus aggregate counters. This package wraps those endpoints with typed
// request and response structures so the rest of iotdash never touches raw
// JSON or URLs.
//
// # Client Usage
//
//	client, err := iotapi.NewClient("http://localhost:8000",
//		iotapi.WithTimeout(10*time.Second),
//		iotapi.WithRetries(2),
//	)
//	if err != nil {
//		return err
//	}
//
//	devices, err := client.ListDevices(ctx, 0, 100)
//	stats, err := client.GetAlertStats(ctx)
//	alert, err := client.ResolveAlert(ctx, alertID)
//
// # Endpoints
//
//   - GET    /devices, /devices/stats/count
//   - PUT    /devices/{id}
//   - DELETE /devices/{id}
//   - GET    /alerts, /alerts/stats/count
//   - POST   /alerts/{id}/resolve
//   - DELETE /alerts/{id}
//   - GET    /sensor-readings
//   - GET    /health
//
// # Error Handling
//
// Failures come back as one of:
//
//   - *NetworkError: the request never produced a response (refused, DNS, timeout)
//   - *ServerError: a non-2xx status, with the FastAPI "detail" text when present
//   - a wrapped "decode response" error for malformed JSON
//
// IsNetwork and IsNotFound classify errors without type assertions.
//
// # Retries
//
// GET requests are idempotent and are retried with exponential backoff on
// network failures, 429, and 5xx responses (WithRetries, default none).
// Mutations are sent exactly once; the caller decides what a failure means.
//
// # Timestamps
//
// The backend serialises UTC datetimes without a zone suffix. Parsed* helpers
// accept RFC3339 and the naive ISO form (treated as UTC) and return the zero
// time for anything else.
//
// # Thread Safety
//
// Client is safe for concurrent use; every request carries its own
// X-Request-ID header so backend logs can be correlated with ours.
package iotapi
