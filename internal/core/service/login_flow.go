package service

import (
	"context"

	"github.com/bangka/console-gateway/internal/core/domain"
	"github.com/bangka/console-gateway/internal/core/ports"
)

type loginFlow struct {
	store ports.SessionStore
}

// NewLoginFlow returns a LoginFlow backed by the given SessionStore.
func NewLoginFlow(store ports.SessionStore) ports.LoginFlow {
	return &loginFlow{store: store}
}

// Submit validates the form, logs in and picks the next route from the user
// returned by the store, never from a later re-read of shared state.
func (f *loginFlow) Submit(ctx context.Context, sid string, creds domain.Credentials) (*ports.LoginOutcome, error) {
	if creds.Identifier == "" {
		return nil, &domain.ValidationError{Field: "identifier", Message: "Email is required"}
	}
	if creds.Password == "" {
		return nil, &domain.ValidationError{Field: "password", Message: "Password is required"}
	}

	user, err := f.store.Login(ctx, sid, creds)
	if err != nil {
		return nil, err
	}

	return &ports.LoginOutcome{
		User:       user,
		RedirectTo: domain.NextRoute(user),
	}, nil
}
