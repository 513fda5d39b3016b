package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/bangka/console-gateway/internal/core/domain"
	"github.com/bangka/console-gateway/internal/core/ports"
)

const subscriberBuffer = 8

// Notifier publishes session state changes over Redis pub/sub so every
// gateway replica sees them.
type Notifier struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewNotifier(client *redis.Client, log zerolog.Logger) *Notifier {
	return &Notifier{client: client, log: log}
}

var _ ports.SessionNotifier = (*Notifier)(nil)

func (n *Notifier) Publish(ctx context.Context, id string, state domain.SessionState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}
	if err := n.client.Publish(ctx, eventsChannel(id), raw).Err(); err != nil {
		return fmt.Errorf("publish session state: %w", err)
	}
	return nil
}

// Subscribe confirms the subscription before returning, so no state published
// afterwards is missed. Slow readers drop states rather than block others.
func (n *Notifier) Subscribe(ctx context.Context, id string) (<-chan domain.SessionState, func(), error) {
	sub := n.client.Subscribe(ctx, eventsChannel(id))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("subscribe session events: %w", err)
	}

	out := make(chan domain.SessionState, subscriberBuffer)
	done := make(chan struct{})
	go func() {
		defer close(out)
		msgs := sub.Channel()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var st domain.SessionState
				if err := json.Unmarshal([]byte(msg.Payload), &st); err != nil {
					n.log.Warn().Err(err).Str("session", id).Msg("discarding malformed session event")
					continue
				}
				select {
				case out <- st:
				default:
					n.log.Debug().Str("session", id).Msg("subscriber lagging, session event dropped")
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = sub.Close()
		})
	}
	return out, cancel, nil
}
