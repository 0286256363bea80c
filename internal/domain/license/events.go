package license

import (
	"time"

	"github.com/keygate-inc/keygate/internal/domain/shared/events"
)

// Event types emitted by the license lifecycle.
const (
	EventLicenseKeyCreated  = "license_key.created"
	EventLicenseProvisioned = "license.provisioned"
	EventLicenseRenewed     = "license.renewed"
	EventLicenseSuspended   = "license.suspended"
	EventLicenseResumed     = "license.resumed"
	EventLicenseCancelled   = "license.cancelled"
	EventLicenseExpired     = "license.expired"
)

var actionEvents = map[Action]string{
	ActionRenew:   EventLicenseRenewed,
	ActionSuspend: EventLicenseSuspended,
	ActionResume:  EventLicenseResumed,
	ActionCancel:  EventLicenseCancelled,
	ActionExpire:  EventLicenseExpired,
}

// LicenseKeyCreatedEvent is emitted once per provisioning call.
type LicenseKeyCreatedEvent struct {
	events.BaseEvent
	CustomerEmail string `json:"customer_email"`
}

// LicenseProvisionedEvent is emitted for every license created.
type LicenseProvisionedEvent struct {
	events.BaseEvent
	LicenseKeyID string     `json:"license_key_id"`
	ProductID    string     `json:"product_id"`
	SeatLimit    int        `json:"seat_limit"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// LicenseStatusChangedEvent is emitted on every lifecycle transition.
type LicenseStatusChangedEvent struct {
	events.BaseEvent
	LicenseKeyID string     `json:"license_key_id"`
	From         Status     `json:"from"`
	To           Status     `json:"to"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// NewLicenseKeyCreatedEvent builds the key creation event
func NewLicenseKeyCreatedEvent(k *LicenseKey, now time.Time) *LicenseKeyCreatedEvent {
	return &LicenseKeyCreatedEvent{
		BaseEvent:     events.NewBaseEvent(EventLicenseKeyCreated, k.BrandID(), k.ID(), now),
		CustomerEmail: k.CustomerEmail(),
	}
}

// NewLicenseProvisionedEvent builds the provisioning event
func NewLicenseProvisionedEvent(l *License, now time.Time) *LicenseProvisionedEvent {
	return &LicenseProvisionedEvent{
		BaseEvent:    events.NewBaseEvent(EventLicenseProvisioned, l.BrandID(), l.ID(), now),
		LicenseKeyID: l.LicenseKeyID(),
		ProductID:    l.ProductID(),
		SeatLimit:    l.SeatLimit(),
		ExpiresAt:    l.ExpiresAt(),
	}
}

// NewStatusChangedEvent builds the event for an applied action
func NewStatusChangedEvent(a Action, from Status, l *License, now time.Time) *LicenseStatusChangedEvent {
	return &LicenseStatusChangedEvent{
		BaseEvent:    events.NewBaseEvent(actionEvents[a], l.BrandID(), l.ID(), now),
		LicenseKeyID: l.LicenseKeyID(),
		From:         from,
		To:           l.Status(),
		ExpiresAt:    l.ExpiresAt(),
	}
}

// KeyScoped is implemented by events that affect a license key's cached status.
type KeyScoped interface {
	GetLicenseKeyID() string
}

func (e *LicenseKeyCreatedEvent) GetLicenseKeyID() string    { return e.AggregateID }
func (e *LicenseProvisionedEvent) GetLicenseKeyID() string   { return e.LicenseKeyID }
func (e *LicenseStatusChangedEvent) GetLicenseKeyID() string { return e.LicenseKeyID }
