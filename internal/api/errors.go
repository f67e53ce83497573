package api

import (
	"errors"
	"fmt"
	"net/http"
)

// RequestError is returned for every non-2xx response. Message is never empty.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return e.Message
}

// IsUnauthorized reports whether err is a 401 or 403 from the backend.
// The client never logs out on its own; the UI decides what to do.
func IsUnauthorized(err error) bool {
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		return false
	}
	return reqErr.StatusCode == http.StatusUnauthorized || reqErr.StatusCode == http.StatusForbidden
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode
	}
	return 0
}

// statusMessage is the last-resort message for an error response.
func statusMessage(code int) string {
	if text := http.StatusText(code); text != "" {
		return text
	}
	return fmt.Sprintf("Request failed (%d)", code)
}
