package cache

import (
	"context"
	"time"

	"github.com/keygate-inc/keygate/internal/domain/license"
	"github.com/keygate-inc/keygate/internal/domain/shared/events"
)

const invalidateTimeout = 2 * time.Second

// Invalidator is the part of a status cache an event handler needs.
type Invalidator interface {
	Invalidate(ctx context.Context, keyID string) error
}

// StatusInvalidator drops the cached status of the key an event touches.
type StatusInvalidator struct {
	cache Invalidator
}

// NewStatusInvalidator creates the handler
func NewStatusInvalidator(cache Invalidator) *StatusInvalidator {
	return &StatusInvalidator{cache: cache}
}

// Handle invalidates the event's key. Events not scoped to a key are ignored.
func (h *StatusInvalidator) Handle(event events.DomainEvent) error {
	scoped, ok := event.(license.KeyScoped)
	if !ok || scoped.GetLicenseKeyID() == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), invalidateTimeout)
	defer cancel()
	return h.cache.Invalidate(ctx, scoped.GetLicenseKeyID())
}

// CanHandle accepts every event; Handle filters on KeyScoped.
func (h *StatusInvalidator) CanHandle(string) bool { return true }
