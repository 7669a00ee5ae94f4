package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"basegraph.app/leads/internal/model"
)

// RedisPublisher publishes change events to a Redis Pub/Sub channel so every
// API instance can relay them to its own subscribers.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, event model.ChangeEvent) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("invalid change event: %w", err)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding change event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish change event: %w", err)
	}
	return nil
}

// RedisRelay feeds events from the Redis channel into the local Hub.
type RedisRelay struct {
	client  *redis.Client
	channel string
	hub     *Hub
	metrics *Metrics
}

func NewRedisRelay(client *redis.Client, channel string, hub *Hub, metrics *Metrics) *RedisRelay {
	return &RedisRelay{client: client, channel: channel, hub: hub, metrics: metrics}
}

// Run relays until ctx is cancelled. Messages published while the relay is
// not subscribed are lost, which the feed's no-replay contract allows.
func (r *RedisRelay) Run(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	// Wait for the subscription confirmation so startup fails fast.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	slog.InfoContext(ctx, "change feed relay subscribed", "channel", r.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := r.relay(ctx, []byte(msg.Payload)); err != nil {
				if errors.Is(err, ErrHubClosed) {
					return nil
				}
				slog.WarnContext(ctx, "dropping undeliverable change event", "error", err)
			}
		}
	}
}

func (r *RedisRelay) relay(ctx context.Context, payload []byte) error {
	var event model.ChangeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		r.metrics.undeliverable()
		return fmt.Errorf("decoding change event: %w", err)
	}
	if err := r.hub.Publish(ctx, event); err != nil {
		if !errors.Is(err, ErrHubClosed) {
			r.metrics.undeliverable()
		}
		return err
	}
	return nil
}
