package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrEmptyPreview is returned when a preview succeeds but carries no recipe.
var ErrEmptyPreview = errors.New("no recipe found on page")

// ConnectivityError means the request never reached the server or no
// response came back.
type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s: unable to connect to server: %v", e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// RemoteRejection means the server answered with a non-2xx status.
type RemoteRejection struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *RemoteRejection) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s (%d)", e.Op, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
}

// AuthError is returned by Login. Message is suitable for showing to the
// user; Err holds the underlying ConnectivityError or RemoteRejection, if any.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return e.Err }

// ValidationError reports a local precondition that failed before any
// request was sent.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validationf builds a ValidationError.
func Validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsConnectivity reports whether err wraps a ConnectivityError.
func IsConnectivity(err error) bool {
	var ce *ConnectivityError
	return errors.As(err, &ce)
}

// IsRejection reports whether err wraps a RemoteRejection and returns it.
func IsRejection(err error) (*RemoteRejection, bool) {
	var rr *RemoteRejection
	if errors.As(err, &rr) {
		return rr, true
	}
	return nil, false
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsUnauthorized reports whether the server rejected the bearer token.
func IsUnauthorized(err error) bool {
	rr, ok := IsRejection(err)
	return ok && rr.StatusCode == http.StatusUnauthorized
}
