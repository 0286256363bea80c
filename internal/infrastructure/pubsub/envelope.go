// Package pubsub carries domain events to other processes over Redis pub/sub
// or a RabbitMQ topic exchange.
package pubsub

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/keygate-inc/keygate/internal/domain/shared/events"
)

// Envelope is the wire form of a domain event
type Envelope struct {
	EventType   string          `json:"event_type"`
	TenantID    string          `json:"tenant_id"`
	AggregateID string          `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Version     int             `json:"version"`
	Payload     json.RawMessage `json:"payload"`
}

// NewEnvelope marshals event into an envelope
func NewEnvelope(event events.DomainEvent) (*Envelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", event.GetEventType(), err)
	}
	return &Envelope{
		EventType:   event.GetEventType(),
		TenantID:    event.GetTenantID(),
		AggregateID: event.GetAggregateID(),
		OccurredAt:  event.GetOccurredAt(),
		Version:     event.GetVersion(),
		Payload:     payload,
	}, nil
}
