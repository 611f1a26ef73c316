package igloohome

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is returned when the igloohome API answers with a non-2xx status.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("igloohome: %s: API returned status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("igloohome: %s: API returned status %d: %s", e.Op, e.StatusCode, e.Body)
}

// TransportError is returned when a request could not be sent or its
// response could not be read.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("igloohome: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err is an API rejection of the credentials.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}

// IsVendorError reports whether err is one of the two failure kinds the
// client produces (*APIError or *TransportError).
func IsVendorError(err error) bool {
	var apiErr *APIError
	var transportErr *TransportError
	return errors.As(err, &apiErr) || errors.As(err, &transportErr)
}
