package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/bangka/console-gateway/internal/core/domain"
	"github.com/bangka/console-gateway/internal/core/ports"
)

type passwordChangeFlow struct {
	store   ports.SessionStore
	gateway ports.AuthGateway
	logout  ports.LogoutFlow
	audit   ports.AuditRecorder
	log     zerolog.Logger
}

// NewPasswordChangeFlow returns the forced password rotation flow.
func NewPasswordChangeFlow(
	store ports.SessionStore,
	gateway ports.AuthGateway,
	logout ports.LogoutFlow,
	audit ports.AuditRecorder,
	log zerolog.Logger,
) ports.PasswordChangeFlow {
	return &passwordChangeFlow{store: store, gateway: gateway, logout: logout, audit: audit, log: log}
}

// Submit validates locally, then asks the backend to rotate the password
// using the session's backend cookies. Nothing is sent when validation fails.
func (f *passwordChangeFlow) Submit(ctx context.Context, sid string, req domain.PasswordChangeRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	var user *domain.AuthenticatedUser
	if st, err := f.store.Snapshot(ctx, sid); err == nil {
		user = st.User
	}

	err := f.store.RotateCredentials(ctx, sid, func(cookies []domain.UpstreamCookie) error {
		return f.gateway.SetNewPassword(ctx, cookies, req.CurrentPassword, req.NewPassword)
	})

	event := domain.AuthEvent{SessionID: sid, Kind: domain.EventPasswordChange, Outcome: domain.OutcomeSuccess}
	if user != nil {
		event.Username = user.Username
		event.Role = user.Role
	}

	if err != nil {
		if errors.Is(err, domain.ErrOperationInProgress) || errors.Is(err, domain.ErrUnauthenticated) {
			return err
		}
		event.Outcome = domain.OutcomeFailure
		event.Detail = err.Error()
		f.record(event)
		f.log.Warn().Err(err).Str("session", sid).Msg("password change rejected")
		return &domain.DisplayError{Message: domain.UserMessage(err, domain.MsgPasswordChangeFailed), Err: err}
	}

	f.record(event)
	f.log.Info().Str("session", sid).Msg("password changed")
	return nil
}

// Acknowledge ends the session unconditionally. After a successful Submit the
// user is already gone, so this only deletes the record and the cookies.
func (f *passwordChangeFlow) Acknowledge(ctx context.Context, sid string) string {
	return f.logout.Logout(ctx, sid)
}

func (f *passwordChangeFlow) record(event domain.AuthEvent) {
	if f.audit == nil {
		return
	}
	event.OccurredAt = timeNow()
	f.audit.Record(event)
}
