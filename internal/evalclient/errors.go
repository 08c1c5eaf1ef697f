package evalclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// ErrRetriesExhausted is returned when no attempt recorded an error, which
// only happens with an empty backoff schedule.
var ErrRetriesExhausted = errors.New("all retries exhausted")

// APIError is a non-2xx/3xx HTTP response from the evaluation service.
type APIError struct {
	StatusCode int
	Message    string
	Retryable  bool
}

func (e *APIError) Error() string { return e.Message }

// NetworkError is a transport-level failure: the request never produced an
// HTTP response.
type NetworkError struct {
	Err       error
	Retryable bool
}

func (e *NetworkError) Error() string { return "network error: " + e.Err.Error() }

func (e *NetworkError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is worth another attempt. Only server
// errors and transient network failures are; everything else fails fast.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.Retryable
	}
	return false
}

// IsAuthError reports whether err is an HTTP 401 or 403 from the service.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}

// responseError classifies an HTTP status. It returns nil for statuses that
// carry a result.
func responseError(status int, body []byte) error {
	msg := serverMessage(body)
	switch {
	case status >= 400 && status < 500:
		if msg == "" {
			msg = fmt.Sprintf("API error: %d", status)
		}
		return &APIError{StatusCode: status, Message: msg}
	case status >= 500 && status < 600:
		text := fmt.Sprintf("API returned %d", status)
		if msg != "" {
			text += ": " + msg
		}
		return &APIError{StatusCode: status, Message: text, Retryable: true}
	default:
		return nil
	}
}

func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Message)
}

var transientPhrases = []string{
	"connection reset",
	"socket hang up",
	"broken pipe",
	"network",
}

// classifyTransport wraps a transport failure, marking it retryable when it
// looks like a timeout, a dropped connection or a name resolution failure.
func classifyTransport(err error) *NetworkError {
	return &NetworkError{Err: err, Retryable: isTransient(err)}
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	for _, target := range []error{syscall.ECONNRESET, syscall.ECONNREFUSED, syscall.EPIPE, io.EOF, io.ErrUnexpectedEOF} {
		if errors.Is(err, target) {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	for _, p := range transientPhrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
