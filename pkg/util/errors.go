package util

import (
	"errors"
	"net/http"

	"github.com/mise-en-place/cli/pkg/api"
)

// CleanedUpAPIError wraps an API error so only a short, user-facing
// message is printed. The full error stays reachable through Unwrap.
type CleanedUpAPIError struct {
	Err error
}

func (e CleanedUpAPIError) Error() string {
	err := e.Err
	if err == nil {
		return "unknown error"
	}

	var auth *api.AuthError
	if errors.As(err, &auth) {
		return auth.Message
	}
	var validation *api.ValidationError
	if errors.As(err, &validation) {
		return validation.Message
	}
	if errors.Is(err, api.ErrEmptyPreview) {
		return "No recipe found on this page"
	}
	if api.IsConnectivity(err) {
		return "Unable to connect to server"
	}
	if rej, ok := api.IsRejection(err); ok {
		switch {
		case rej.StatusCode == http.StatusUnauthorized:
			return "Your session has expired. Please log in again"
		case rej.Message != "":
			return rej.Message
		default:
			return "Failed to import recipe (" + http.StatusText(rej.StatusCode) + ")"
		}
	}
	return err.Error()
}

func (e CleanedUpAPIError) Unwrap() error { return e.Err }
