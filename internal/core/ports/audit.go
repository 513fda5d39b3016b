package ports

import (
	"context"

	"github.com/bangka/console-gateway/internal/core/domain"
)

// AuditRepository persists authentication audit events.
type AuditRepository interface {
	InsertEvent(ctx context.Context, event *domain.AuthEvent) error
}

// AuditRecorder accepts audit events without blocking the caller's flow.
type AuditRecorder interface {
	Record(event domain.AuthEvent)
}

// AuditService persists a single audit event; it runs on the audit workers.
type AuditService interface {
	Process(ctx context.Context, event domain.AuthEvent) error
}
