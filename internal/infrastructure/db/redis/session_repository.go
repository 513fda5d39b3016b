package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bangka/console-gateway/internal/core/domain"
	"github.com/bangka/console-gateway/internal/core/ports"
)

const (
	defaultSessionTTL  = 12 * time.Hour
	defaultInFlightTTL = 30 * time.Second
)

// SessionRepository stores console sessions as JSON values.
// Key format: console:session:<id>, in-flight flag console:session:<id>:inflight
type SessionRepository struct {
	client      *redis.Client
	ttl         time.Duration
	inFlightTTL time.Duration
}

// NewSessionRepository wraps client. ttl bounds idle sessions; inFlightTTL
// bounds a stuck in-flight flag and should exceed the backend timeout.
func NewSessionRepository(client *redis.Client, ttl, inFlightTTL time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if inFlightTTL <= 0 {
		inFlightTTL = defaultInFlightTTL
	}
	return &SessionRepository{client: client, ttl: ttl, inFlightTTL: inFlightTTL}
}

var _ ports.SessionRepository = (*SessionRepository)(nil)

func (r *SessionRepository) Get(ctx context.Context, id string) (*domain.SessionRecord, error) {
	raw, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var rec domain.SessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &rec, nil
}

// Save writes the record and refreshes its TTL.
func (r *SessionRepository) Save(ctx context.Context, rec *domain.SessionRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(rec.ID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Acquire sets the in-flight flag with SET NX; false means it is already held.
func (r *SessionRepository) Acquire(ctx context.Context, id string) (bool, error) {
	ok, err := r.client.SetNX(ctx, inFlightKey(id), "1", r.inFlightTTL).Result()
	if err != nil {
		return false, fmt.Errorf("acquire in-flight flag: %w", err)
	}
	return ok, nil
}

func (r *SessionRepository) Release(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, inFlightKey(id)).Err(); err != nil {
		return fmt.Errorf("release in-flight flag: %w", err)
	}
	return nil
}

func (r *SessionRepository) InFlight(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, inFlightKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("check in-flight flag: %w", err)
	}
	return n > 0, nil
}

func sessionKey(id string) string {
	return "console:session:" + id
}

func inFlightKey(id string) string {
	return sessionKey(id) + ":inflight"
}

func eventsChannel(id string) string {
	return sessionKey(id) + ":events"
}
