package ports

import (
	"context"

	"github.com/bangka/console-gateway/internal/core/domain"
)

// LoginOutcome is the result of a successful login submission.
type LoginOutcome struct {
	User       *domain.AuthenticatedUser
	RedirectTo string
}

// LoginFlow turns a credential submission into a navigation decision.
type LoginFlow interface {
	Submit(ctx context.Context, sid string, creds domain.Credentials) (*LoginOutcome, error)
}

// PasswordChangeFlow rotates the password of the signed-in user.
type PasswordChangeFlow interface {
	Submit(ctx context.Context, sid string, req domain.PasswordChangeRequest) error
	// Acknowledge ends the session after a successful change and returns the next route.
	Acknowledge(ctx context.Context, sid string) string
}

// LogoutFlow ends a console session and returns the next route.
type LogoutFlow interface {
	Logout(ctx context.Context, sid string) string
}

// RecoveryFlow handles the forgot-password and reset-link forms.
type RecoveryFlow interface {
	RequestReset(ctx context.Context, email string) error
	ConfirmReset(ctx context.Context, req domain.PasswordResetConfirmation) error
}
