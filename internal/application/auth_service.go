package application

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
)

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// BasicAuthenticator checks HTTP Basic credentials against one configured
// account.
type BasicAuthenticator struct {
	username     string
	passwordHash string
	verify       PasswordVerifier
	logger       *slog.Logger
}

// NewBasicAuthenticator builds an authenticator. A nil verifier selects VerifyPassword.
func NewBasicAuthenticator(username, passwordHash string, verify PasswordVerifier, logger *slog.Logger) *BasicAuthenticator {
	if verify == nil {
		verify = VerifyPassword
	}
	return &BasicAuthenticator{
		username:     username,
		passwordHash: passwordHash,
		verify:       verify,
		logger:       defaultLogger(logger),
	}
}

// Enabled reports whether credentials are configured at all.
func (a *BasicAuthenticator) Enabled() bool {
	return a != nil && a.username != "" && a.passwordHash != ""
}

// Authenticate returns nil for matching credentials and ErrInvalidCredentials otherwise.
func (a *BasicAuthenticator) Authenticate(ctx context.Context, username, password string) (err error) {
	if a == nil {
		return fmt.Errorf("BasicAuthenticator is nil")
	}

	logger := serviceLogger(ctx, a.logger, "BasicAuthenticator", "Authenticate", "username", username)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if username == "" || password == "" {
		return ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) != 1 {
		return ErrInvalidCredentials
	}

	if err := a.verify(a.passwordHash, password); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("verify password: %w", err)
	}
	return nil
}
