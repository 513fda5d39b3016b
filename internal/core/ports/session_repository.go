package ports

import (
	"context"

	"github.com/bangka/console-gateway/internal/core/domain"
)

// SessionRepository persists console sessions and their in-flight flag.
type SessionRepository interface {
	// Get returns domain.ErrSessionNotFound for unknown or expired ids.
	Get(ctx context.Context, id string) (*domain.SessionRecord, error)
	Save(ctx context.Context, rec *domain.SessionRecord) error
	Delete(ctx context.Context, id string) error

	// Acquire sets the in-flight flag; false means another operation holds it.
	Acquire(ctx context.Context, id string) (bool, error)
	Release(ctx context.Context, id string) error
	InFlight(ctx context.Context, id string) (bool, error)
}

// SessionNotifier fans out session state changes to subscribers.
type SessionNotifier interface {
	Publish(ctx context.Context, id string, state domain.SessionState) error
	// Subscribe returns a channel of states and a func that ends the subscription.
	Subscribe(ctx context.Context, id string) (<-chan domain.SessionState, func(), error)
}
