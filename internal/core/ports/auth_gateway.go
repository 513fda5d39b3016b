package ports

import (
	"context"

	"github.com/bangka/console-gateway/internal/core/domain"
)

// UpstreamLogin is what the registry backend hands back on a successful login.
type UpstreamLogin struct {
	User    *domain.AuthenticatedUser
	Cookies []domain.UpstreamCookie
}

// AuthGateway is the registry backend's authentication surface.
type AuthGateway interface {
	Login(ctx context.Context, creds domain.Credentials) (*UpstreamLogin, error)
	Logout(ctx context.Context, cookies []domain.UpstreamCookie) error
	SetNewPassword(ctx context.Context, cookies []domain.UpstreamCookie, currentPassword, newPassword string) error
	RequestPasswordReset(ctx context.Context, email, frontendURL string) error
	ConfirmPasswordReset(ctx context.Context, req domain.PasswordResetConfirmation) error
}
