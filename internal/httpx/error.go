package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// HTTPError represents a non-2xx response from a remote service. Details
// carries the decoded JSON error body when the service returned one, or a
// {"raw": <text>} wrapper when it did not.
type HTTPError struct {
	StatusCode int
	Details    any
	Body       []byte
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("httpx: remote status %d: %s", e.StatusCode, truncate(string(e.Body), 256))
}

// Retryable reports whether the response status is considered transient.
func (e *HTTPError) Retryable() bool {
	if e == nil {
		return false
	}
	return retryableStatus(e.StatusCode)
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests ||
		status == http.StatusRequestTimeout ||
		(status >= 500 && status <= 599)
}

func newHTTPError(status int, body []byte) *HTTPError {
	err := &HTTPError{StatusCode: status, Body: body}
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return err
	}
	var decoded any
	if jsonErr := json.Unmarshal([]byte(trimmed), &decoded); jsonErr == nil {
		err.Details = decoded
	} else {
		err.Details = map[string]any{"raw": trimmed}
	}
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
