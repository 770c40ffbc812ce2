package wcl

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse is returned when a payload is missing a field or
	// has a field of the wrong type.
	ErrMalformedResponse = errors.New("malformed api response")
	// ErrNetwork wraps transport failures and timeouts.
	ErrNetwork = errors.New("network error")
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

func missingField(path string) error {
	return fmt.Errorf("%w: missing field %s", ErrMalformedResponse, path)
}
