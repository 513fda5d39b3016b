package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bangka/console-gateway/internal/core/domain"
	"github.com/bangka/console-gateway/internal/core/ports"
)

const collectionAuthEvents = "auth_events"

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	col *mongo.Collection
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionAuthEvents)}
}

var _ ports.AuditRepository = (*AuditRepository)(nil)

// EnsureIndexes creates the lookup indexes used when reviewing a session or user.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "username", Value: 1}, {Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "occurred_at", Value: -1}}, Options: options.Index().SetName("occurred_at_desc")},
	})
	if err != nil {
		return fmt.Errorf("create audit indexes: %w", err)
	}
	return nil
}

// InsertEvent persists an auth event to the auth_events collection.
func (r *AuditRepository) InsertEvent(ctx context.Context, event *domain.AuthEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"kind":        string(event.Kind),
		"outcome":     event.Outcome,
		"occurred_at": event.OccurredAt.UTC(),
	}
	if event.SessionID != "" {
		doc["session_id"] = event.SessionID
	}
	if event.Username != "" {
		doc["username"] = event.Username
	}
	if event.Role != "" {
		doc["role"] = string(event.Role)
	}
	if event.Detail != "" {
		doc["detail"] = event.Detail
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert auth event: %w", err)
	}
	return nil
}
