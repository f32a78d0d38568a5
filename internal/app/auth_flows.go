package app

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"divai/internal/util"
	"divai/pkg/auth"
	"divai/pkg/domain"
	"divai/pkg/notify"
	"divai/pkg/store"
)

const otpTTL = 5 * time.Minute

// Register creates a user with a bcrypt-hashed password and queues a welcome
// email.
func (a *App) Register(username, email, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	switch {
	case username == "":
		return domain.User{}, fmt.Errorf("%w: username is required", ErrValidation)
	case email == "" || !strings.Contains(email, "@"):
		return domain.User{}, fmt.Errorf("%w: valid email is required", ErrValidation)
	case len(password) < 6:
		return domain.User{}, fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	now := a.now()
	user := domain.User{
		ID:           util.NewID(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.SaveUser(user); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			if taken, _ := a.store.HasUsername(username); taken {
				return domain.User{}, ErrUsernameTaken
			}
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}

	notify.PublishAsync(a.publisher, notify.Event{
		Kind:     notify.KindWelcome,
		To:       user.Email,
		Username: user.Username,
	})
	return user, nil
}

// Login verifies credentials and issues a session token.
func (a *App) Login(username, password string) (string, domain.User, error) {
	username = strings.TrimSpace(username)
	user, ok, err := a.store.GetUserByUsername(username)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("load user: %w", err)
	}
	if !ok || !auth.VerifyPassword(user.PasswordHash, password) {
		return "", domain.User{}, ErrInvalidCredentials
	}
	token, err := a.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

// ForgotPassword issues a 6-digit reset code valid for five minutes. The
// response does not reveal whether the email is registered.
func (a *App) ForgotPassword(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if !ok {
		return nil
	}

	otp, err := newOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	otpHash, err := auth.HashPassword(otp)
	if err != nil {
		return fmt.Errorf("hash otp: %w", err)
	}
	expires := a.now().Add(otpTTL)
	user.ResetOTPHash = otpHash
	user.ResetOTPExpires = &expires
	user.UpdatedAt = a.now()
	if err := a.store.SaveUser(user); err != nil {
		return fmt.Errorf("save otp: %w", err)
	}

	notify.PublishAsync(a.publisher, notify.Event{
		Kind:     notify.KindResetOTP,
		To:       user.Email,
		Username: user.Username,
		OTP:      otp,
	})
	return nil
}

// ResetPassword checks the OTP against its hash and expiry, then replaces
// the password and clears the code.
func (a *App) ResetPassword(email, otp, newPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(newPassword) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	}
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if !ok || user.ResetOTPHash == "" {
		return ErrInvalidOTP
	}
	if user.ResetOTPExpires == nil || a.now().After(*user.ResetOTPExpires) {
		return ErrExpiredOTP
	}
	if !auth.VerifyPassword(user.ResetOTPHash, otp) {
		return ErrInvalidOTP
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	user.ResetOTPHash = ""
	user.ResetOTPExpires = nil
	user.UpdatedAt = a.now()
	if err := a.store.SaveUser(user); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func newOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
