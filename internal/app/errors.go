package app

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation wraps bad-input failures so the HTTP layer can map them
	// to 400 without string matching.
	ErrValidation = errors.New("invalid input")

	ErrEmptyMessage         = errors.New("message text is required")
	ErrUsernameTaken        = errors.New("username already taken")
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrInvalidOTP           = errors.New("invalid reset code")
	ErrExpiredOTP           = errors.New("reset code expired")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrUnknownProvider      = errors.New("unknown provider")
	ErrProviderBusy         = errors.New("model provider is rate limited")
	ErrNotAdmin             = errors.New("admin access required")
)

// CooldownError reports how long the caller must wait before the next chat.
type CooldownError struct {
	Seconds int
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active, retry in %ds", e.Seconds)
}

// AsCooldownError unwraps a CooldownError from an error chain.
func AsCooldownError(err error) (*CooldownError, bool) {
	var ce *CooldownError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
