package service

import (
	"context"

	"github.com/bangka/console-gateway/internal/core/domain"
	"github.com/bangka/console-gateway/internal/core/ports"
)

type logoutFlow struct {
	store ports.SessionStore
}

// NewLogoutFlow returns a LogoutFlow backed by the given SessionStore.
func NewLogoutFlow(store ports.SessionStore) ports.LogoutFlow {
	return &logoutFlow{store: store}
}

// Logout always lands on the public entry route, whatever the backend said.
func (f *logoutFlow) Logout(ctx context.Context, sid string) string {
	f.store.Logout(ctx, sid)
	return domain.RouteEntry
}
