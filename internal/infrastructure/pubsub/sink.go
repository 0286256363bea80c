package pubsub

import (
	"github.com/keygate-inc/keygate/internal/domain/shared/events"
	"github.com/keygate-inc/keygate/internal/shared/logger"
)

// Sink is the publisher handed to use cases. It never fails: transport errors
// are logged at warn and dropped. Local handlers run before forwarding.
type Sink struct {
	next   events.EventPublisher
	local  []events.EventHandler
	logger logger.Interface
}

// NewSink wraps next. next may be nil when only local handlers are wanted.
func NewSink(next events.EventPublisher, logger logger.Interface, local ...events.EventHandler) *Sink {
	return &Sink{next: next, local: local, logger: logger}
}

// Publish publishes a single event
func (s *Sink) Publish(event events.DomainEvent) error {
	for _, h := range s.local {
		if !h.CanHandle(event.GetEventType()) {
			continue
		}
		if err := h.Handle(event); err != nil {
			s.logger.Warnw("local event handler failed",
				"event_type", event.GetEventType(),
				"aggregate_id", event.GetAggregateID(),
				"error", err,
			)
		}
	}

	if s.next == nil {
		return nil
	}
	if err := s.next.Publish(event); err != nil {
		s.logger.Warnw("failed to publish event",
			"event_type", event.GetEventType(),
			"tenant_id", event.GetTenantID(),
			"aggregate_id", event.GetAggregateID(),
			"error", err,
		)
	}
	return nil
}

// PublishAll publishes every event, continuing past failures
func (s *Sink) PublishAll(evts []events.DomainEvent) error {
	for _, e := range evts {
		_ = s.Publish(e)
	}
	return nil
}
