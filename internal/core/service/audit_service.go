package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bangka/console-gateway/internal/core/domain"
	"github.com/bangka/console-gateway/internal/core/ports"
)

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService returns an AuditService that persists events through repo.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Process persists one event. Events without a timestamp get the current time.
func (s *auditService) Process(ctx context.Context, event domain.AuthEvent) error {
	if event.Kind == "" {
		return fmt.Errorf("audit event: missing kind")
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = timeNow()
	}
	if err := s.repo.InsertEvent(ctx, &event); err != nil {
		return fmt.Errorf("audit event: insert: %w", err)
	}

	s.log.Debug().
		Str("session", event.SessionID).
		Str("kind", string(event.Kind)).
		Str("outcome", event.Outcome).
		Msg("auth event recorded")
	return nil
}
