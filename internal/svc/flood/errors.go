package flood

import (
	"errors"
	"fmt"
)

// connectivityMessage is what users see for anything that is not an auth rejection.
const connectivityMessage = "unable to connect to Flood, please check your settings"

// AuthenticationError represents a rejected session or rejected credentials
// (401 Unauthorized and 403 Forbidden responses). The cached session for the
// identity is already purged when this error is returned.
type AuthenticationError struct {
	Operation string // The operation that required authentication
	Err       error  // Underlying error, if any
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("failed to authenticate with Flood during %s", e.Operation)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// ConnectivityError represents every other failure talking to Flood: network
// failures, unexpected status codes, malformed responses and cancellations.
type ConnectivityError struct {
	Operation  string // The operation that failed (e.g., "torrents.list")
	StatusCode int    // HTTP status code, if applicable (0 for non-HTTP errors)
	Err        error  // Underlying error, if any
}

func (e *ConnectivityError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (%s: HTTP %d)", connectivityMessage, e.Operation, e.StatusCode)
	}

	return fmt.Sprintf("%s (%s)", connectivityMessage, e.Operation)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// IsAuthenticationError reports whether err carries an AuthenticationError.
func IsAuthenticationError(err error) bool {
	var authErr *AuthenticationError

	return errors.As(err, &authErr)
}

// IsConnectivityError reports whether err carries a ConnectivityError.
func IsConnectivityError(err error) bool {
	var connErr *ConnectivityError

	return errors.As(err, &connErr)
}
