package storeapi

import (
	"errors"
	"fmt"
)

var ErrUnexpectedResponse = errors.New("unexpected store api response")

// APIError is a request the store answered with a failure, either through the
// HTTP status or through success=false in the envelope.
type APIError struct {
	Path    string
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "request failed"
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (code %s, status %d)", e.Path, msg, e.Code, e.Status)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Path, msg, e.Status)
}

// IsUnauthorized reports whether the store rejected the credential.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == 401
}
