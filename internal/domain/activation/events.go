package activation

import (
	"time"

	"github.com/keygate-inc/keygate/internal/domain/shared/events"
)

const (
	EventSeatActivated   = "seat.activated"
	EventSeatDeactivated = "seat.deactivated"
)

// SeatEvent is emitted when a seat is taken or released.
type SeatEvent struct {
	events.BaseEvent
	LicenseID          string `json:"license_id"`
	LicenseKeyID       string `json:"license_key_id"`
	InstanceIdentifier string `json:"instance_identifier"`
	SeatsUsed          int    `json:"seats_used"`
	SeatLimit          int    `json:"seat_limit"`
}

// NewSeatEvent builds a seat event. tenantID and keyID come from the owning license.
func NewSeatEvent(eventType, tenantID, keyID string, a *Activation, usage SeatUsage, now time.Time) *SeatEvent {
	return &SeatEvent{
		BaseEvent:          events.NewBaseEvent(eventType, tenantID, a.ID(), now),
		LicenseID:          a.LicenseID(),
		LicenseKeyID:       keyID,
		InstanceIdentifier: a.InstanceIdentifier(),
		SeatsUsed:          usage.Used,
		SeatLimit:          usage.Limit,
	}
}

func (e *SeatEvent) GetLicenseKeyID() string { return e.LicenseKeyID }
