package apierr

import (
	"fmt"
	"net/http"
)

// RawResponse is what a transport received for a failed attempt
type RawResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// TransportError is the raw failure produced by a transport.
//
// Sent is false when the attempt failed before a request was dispatched.
// Response is nil when nothing was received (connection failure or timeout).
type TransportError struct {
	Method   string
	URL      string
	Sent     bool
	Response *RawResponse
	Err      error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	switch {
	case e.Response != nil:
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Response.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	default:
		return fmt.Sprintf("%s %s: no response", e.Method, e.URL)
	}
}

// Unwrap returns the underlying cause
func (e *TransportError) Unwrap() error {
	return e.Err
}
