package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bangka/console-gateway/internal/core/domain"
	"github.com/bangka/console-gateway/internal/core/ports"
)

type recoveryFlow struct {
	gateway     ports.AuthGateway
	frontendURL string
	audit       ports.AuditRecorder
	log         zerolog.Logger
}

// NewRecoveryFlow returns the forgot-password flow. frontendURL is the public
// console address the backend embeds in reset links.
func NewRecoveryFlow(gateway ports.AuthGateway, frontendURL string, audit ports.AuditRecorder, log zerolog.Logger) ports.RecoveryFlow {
	return &recoveryFlow{gateway: gateway, frontendURL: frontendURL, audit: audit, log: log}
}

func (f *recoveryFlow) RequestReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return &domain.ValidationError{Field: "email", Message: "Email is required"}
	}

	event := domain.AuthEvent{Kind: domain.EventResetRequest, Username: email, Outcome: domain.OutcomeSuccess}
	if err := f.gateway.RequestPasswordReset(ctx, email, f.frontendURL); err != nil {
		event.Outcome = domain.OutcomeFailure
		event.Detail = err.Error()
		f.record(event)
		f.log.Warn().Err(err).Msg("password reset request failed")
		return &domain.DisplayError{Message: domain.UserMessage(err, domain.MsgResetRequestFailed), Err: err}
	}
	f.record(event)
	return nil
}

func (f *recoveryFlow) ConfirmReset(ctx context.Context, req domain.PasswordResetConfirmation) error {
	if req.UID == "" || req.Token == "" {
		return &domain.ValidationError{Field: "token", Message: "Invalid password reset link"}
	}
	if err := req.Validate(); err != nil {
		return err
	}

	event := domain.AuthEvent{Kind: domain.EventResetConfirm, Outcome: domain.OutcomeSuccess, Detail: "uid=" + req.UID}
	if err := f.gateway.ConfirmPasswordReset(ctx, req); err != nil {
		event.Outcome = domain.OutcomeFailure
		event.Detail += " " + err.Error()
		f.record(event)
		f.log.Warn().Err(err).Str("uid", req.UID).Msg("password reset confirm failed")
		return &domain.DisplayError{Message: domain.UserMessage(err, domain.MsgResetConfirmFailed), Err: err}
	}
	f.record(event)
	return nil
}

func (f *recoveryFlow) record(event domain.AuthEvent) {
	if f.audit == nil {
		return
	}
	event.OccurredAt = timeNow()
	f.audit.Record(event)
}
