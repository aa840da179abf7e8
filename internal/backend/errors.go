package backend

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a failure reported by the backend, either as a non-2xx
// response or as an error event inside a chat stream.
type APIError struct {
	Status  int // 0 for errors raised mid-stream
	Message string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("backend error (%d): %s", e.Status, e.Message)
}

// IsSessionExpired reports whether err signals that the backend no longer
// knows the session: a 404 status or an error text saying "not found".
func IsSessionExpired(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusNotFound ||
		strings.Contains(strings.ToLower(apiErr.Message), "not found")
}
