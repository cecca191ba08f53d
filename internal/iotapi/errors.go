package iotapi

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// ErrNilClient is returned when a method is invoked on a nil *Client.
var ErrNilClient = errors.New("client is nil")

// NetworkError reports a request that never produced an HTTP response.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError reports a non-success HTTP status from the API.
type ServerError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
}

func (e *ServerError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api %s %s returned status %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.StatusCode)
}

// Temporary reports whether retrying the request may succeed.
func (e *ServerError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// IsNetwork reports whether err is (or wraps) a NetworkError.
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var srvErr *ServerError
	return errors.As(err, &srvErr) && srvErr.StatusCode == http.StatusNotFound
}

func retryable(err error) bool {
	if IsNetwork(err) {
		return true
	}
	var srvErr *ServerError
	return errors.As(err, &srvErr) && srvErr.Temporary()
}
