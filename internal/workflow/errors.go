package workflow

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from the issue tracker API.
type APIError struct {
	operation  string
	statusCode int
	message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.operation, e.statusCode, e.message)
}

// StatusCode returns the HTTP status code from the response.
func (e *APIError) StatusCode() int { return e.statusCode }

// Operation returns a short description of the API call that failed.
func (e *APIError) Operation() string { return e.operation }

func readAPIError(operation string, resp *http.Response) *APIError {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(b))
	if msg == "" {
		msg = resp.Status
	}
	return &APIError{operation: operation, statusCode: resp.StatusCode, message: msg}
}

// IsNotFound reports whether err is an API error with HTTP 404 status.
func IsNotFound(err error) bool { return HasStatusCode(err, http.StatusNotFound) }

// IsBadRequest reports whether err is an API error with HTTP 400 status.
// On the search endpoint this means the query itself was rejected.
func IsBadRequest(err error) bool { return HasStatusCode(err, http.StatusBadRequest) }

// HasStatusCode reports whether err is an API error whose status matches.
func HasStatusCode(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.statusCode == code
}
