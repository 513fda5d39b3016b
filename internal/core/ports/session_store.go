package ports

import (
	"context"

	"github.com/bangka/console-gateway/internal/core/domain"
)

// SessionStore is the single source of truth for a console session's auth state.
type SessionStore interface {
	Login(ctx context.Context, sid string, creds domain.Credentials) (*domain.AuthenticatedUser, error)
	Logout(ctx context.Context, sid string)
	ClearError(ctx context.Context, sid string) error
	Snapshot(ctx context.Context, sid string) (domain.SessionState, error)
	Subscribe(ctx context.Context, sid string) (<-chan domain.SessionState, func(), error)

	// RotateCredentials runs fn under the session's in-flight flag with the
	// backend cookies attached to the session. On success the session is
	// signed out locally.
	RotateCredentials(ctx context.Context, sid string, fn func(cookies []domain.UpstreamCookie) error) error
}
