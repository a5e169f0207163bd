package httpclient

import (
	"errors"
	"fmt"
)

// APIError is returned when the server answered with a non-2xx status.
type APIError struct {
	StatusCode int
	StatusText string
	// Payload is the decoded JSON body, or the raw text when it was not JSON.
	Payload any
	Message string
	Method  string
	URL     string
}

func (e *APIError) Error() string { return e.Message }

// TransportError is returned when no response was received (DNS, refused
// connection, timeout, cancelled context).
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("network error: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// SerializationError is returned when a body could not be encoded. No request is sent.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialize request body: %v", e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// StatusCode reports the HTTP status carried by an APIError anywhere in err's chain.
func StatusCode(err error) (int, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, true
	}
	return 0, false
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, code int) bool {
	got, ok := StatusCode(err)
	return ok && got == code
}
