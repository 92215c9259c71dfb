package garmin

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionExpired marks a token the service no longer accepts. It is
	// the one fetch error callers escalate instead of absorbing.
	ErrSessionExpired = errors.New("session expired")

	// ErrAuthFailed marks a credential login the SSO flow rejected.
	ErrAuthFailed = errors.New("authentication failed")
)

// APIError is a non-auth failure response from a Connect endpoint.
type APIError struct {
	Status int
	Path   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("garmin: %s returned status %d", e.Path, e.Status)
}
