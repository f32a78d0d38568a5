package ai

import (
	"errors"
	"fmt"
	"net/http"
)

// ProviderError carries the upstream HTTP status and message so callers can
// distinguish provider-side rate limiting from generic failures.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s api error: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s api error: status %d", e.Provider, e.StatusCode)
}

// RateLimited reports whether the upstream rejected the call with 429.
func (e *ProviderError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// AsProviderError unwraps a ProviderError from an error chain.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
