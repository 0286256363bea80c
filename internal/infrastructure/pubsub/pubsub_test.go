package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keygate-inc/keygate/internal/domain/license"
	"github.com/keygate-inc/keygate/internal/domain/shared/events"
	"github.com/keygate-inc/keygate/internal/shared/logger"
)

func sampleEvent(t *testing.T) events.DomainEvent {
	t.Helper()
	now := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	l, err := license.NewLicense("lic-1", "key-1", "brand-1", "prod-1", 2, nil, now)
	require.NoError(t, err)
	return license.NewLicenseProvisionedEvent(l, now)
}

func TestNewEnvelope(t *testing.T) {
	env, err := NewEnvelope(sampleEvent(t))
	require.NoError(t, err)
	assert.Equal(t, license.EventLicenseProvisioned, env.EventType)
	assert.Equal(t, "brand-1", env.TenantID)
	assert.Equal(t, "lic-1", env.AggregateID)
	assert.Equal(t, 1, env.Version)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "key-1", payload["license_key_id"])
}

func TestRedisEventBus(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	bus := NewRedisEventBus(client, "", logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	received := make(chan Envelope, 1)
	go func() {
		_ = bus.Subscribe(ctx, func(_ context.Context, env Envelope) { received <- env })
	}()

	require.Eventually(t, func() bool {
		return len(mr.PubSubChannels("*")) > 0
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, bus.PublishAll([]events.DomainEvent{sampleEvent(t)}))

	select {
	case env := <-received:
		assert.Equal(t, license.EventLicenseProvisioned, env.EventType)
		assert.Equal(t, "lic-1", env.AggregateID)
	case <-time.After(2 * time.Second):
		t.Fatal("event not received")
	}
}

type fakeChannel struct {
	exchange  string
	kind      string
	published []amqp.Publishing
	keys      []string
	fail      error
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp.Table) error {
	c.exchange, c.kind = name, kind
	return nil
}

func (c *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	if c.fail != nil {
		return c.fail
	}
	c.keys = append(c.keys, key)
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeChannel) Close() error { return nil }

func TestAMQPPublisher(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newAMQPPublisher(ch, "", logger.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, DefaultExchange, ch.exchange)
	assert.Equal(t, amqp.ExchangeTopic, ch.kind)

	require.NoError(t, p.Publish(sampleEvent(t)))
	require.Len(t, ch.published, 1)
	assert.Equal(t, []string{license.EventLicenseProvisioned}, ch.keys)
	assert.Equal(t, amqp.Persistent, ch.published[0].DeliveryMode)

	var env Envelope
	require.NoError(t, json.Unmarshal(ch.published[0].Body, &env))
	assert.Equal(t, "brand-1", env.TenantID)

	ch.fail = errors.New("channel closed")
	assert.Error(t, p.Publish(sampleEvent(t)))
	require.NoError(t, p.Close())
}

type failingPublisher struct{ calls int }

func (p *failingPublisher) Publish(events.DomainEvent) error {
	p.calls++
	return errors.New("broker down")
}

func (p *failingPublisher) PublishAll(evts []events.DomainEvent) error {
	for _, e := range evts {
		_ = p.Publish(e)
	}
	return errors.New("broker down")
}

func TestSinkSwallowsErrors(t *testing.T) {
	next := &failingPublisher{}
	var handled []string
	local := events.NewSimpleEventHandler(events.AllEvents, func(e events.DomainEvent) error {
		handled = append(handled, e.GetEventType())
		return errors.New("handler failed")
	})
	sink := NewSink(next, logger.NewNopLogger(), local)

	assert.NoError(t, sink.PublishAll([]events.DomainEvent{sampleEvent(t), sampleEvent(t)}))
	assert.Equal(t, 2, next.calls)
	assert.Len(t, handled, 2)

	assert.NoError(t, NewSink(nil, logger.NewNopLogger()).Publish(sampleEvent(t)))
}
