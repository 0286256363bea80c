package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/keygate-inc/keygate/internal/domain/shared/events"
	"github.com/keygate-inc/keygate/internal/shared/logger"
)

const (
	// DefaultRedisChannel is used when no channel is configured
	DefaultRedisChannel = "keygate:events"
	publishTimeout      = 3 * time.Second
)

// EnvelopeHandler is called for each event received from a bus
type EnvelopeHandler func(ctx context.Context, env Envelope)

// RedisEventBus publishes events as JSON envelopes on one Redis channel
type RedisEventBus struct {
	client  *redis.Client
	channel string
	logger  logger.Interface
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redis.Client, channel string, logger logger.Interface) *RedisEventBus {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisEventBus{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

// Publish publishes a single event
func (b *RedisEventBus) Publish(event events.DomainEvent) error {
	env, err := NewEnvelope(event)
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debugw("event published",
		"channel", b.channel,
		"event_type", env.EventType,
		"aggregate_id", env.AggregateID,
	)
	return nil
}

// PublishAll publishes events in order, stopping at the first failure
func (b *RedisEventBus) PublishAll(evts []events.DomainEvent) error {
	for _, e := range evts {
		if err := b.Publish(e); err != nil {
			return err
		}
	}
	return nil
}

// Subscribe delivers envelopes to handler until ctx is done
func (b *RedisEventBus) Subscribe(ctx context.Context, handler EnvelopeHandler) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}

	b.logger.Infow("subscribed to events", "channel", b.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			b.logger.Infow("event subscriber stopped", "reason", ctx.Err())
			return ctx.Err()

		case msg, ok := <-ch:
			if !ok {
				b.logger.Warnw("event channel closed")
				return nil
			}

			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Warnw("failed to unmarshal event",
					"payload", msg.Payload,
					"error", err,
				)
				continue
			}
			handler(ctx, env)
		}
	}
}
