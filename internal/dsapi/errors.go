package dsapi

import (
	"errors"
	"fmt"
)

// AuthExpiredError reports a 401 from the API. It is fatal to the
// whole session and never retried.
type AuthExpiredError struct {
	Message string
}

// Error returns the error message
func (e *AuthExpiredError) Error() string {
	if e.Message != "" {
		return "auth expired: " + e.Message
	}
	return "auth expired: session token rejected, reauthentication required"
}

// APIError reports a non-auth HTTP failure, either immediately
// (non-retryable status) or after the retry ceiling is exhausted.
type APIError struct {
	Status  int
	Message string
}

// Error returns the error message
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d", e.Status)
}

// NetworkError reports a transport-level failure (DNS, dial, TLS,
// cancelled context). Never retried by the executor.
type NetworkError struct {
	Err error
}

// Error returns the error message
func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

// Unwrap returns the underlying error
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsAuthExpired reports whether err is (or wraps) an AuthExpiredError.
func IsAuthExpired(err error) bool {
	var ae *AuthExpiredError
	return errors.As(err, &ae)
}

// retryable reports whether a status is worth another attempt.
func retryable(status int) bool {
	return status == 429 || status >= 500
}
