package activation

import (
	"fmt"
	"time"
)

// Activation is one seat held by an installation. Deactivation flips the
// active flag; rows are never removed.
type Activation struct {
	id                 string
	licenseID          string
	instanceIdentifier string
	instanceType       InstanceType
	metadata           map[string]any
	active             bool
	activatedAt        time.Time
	deactivatedAt      *time.Time
	lastCheckedAt      *time.Time
}

// NewActivation creates an active seat
func NewActivation(id, licenseID, identifier string, instanceType InstanceType, metadata map[string]any, now time.Time) (*Activation, error) {
	if id == "" || licenseID == "" {
		return nil, fmt.Errorf("activation id and license id are required")
	}
	identifier, err := NormalizeIdentifier(identifier)
	if err != nil {
		return nil, err
	}
	if !instanceType.IsValid() {
		return nil, fmt.Errorf("invalid instance type: %s", instanceType)
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &Activation{
		id:                 id,
		licenseID:          licenseID,
		instanceIdentifier: identifier,
		instanceType:       instanceType,
		metadata:           metadata,
		active:             true,
		activatedAt:        now,
	}, nil
}

// ReconstructActivation rebuilds an activation from persistence
func ReconstructActivation(
	id, licenseID, identifier string,
	instanceType InstanceType,
	metadata map[string]any,
	active bool,
	activatedAt time.Time,
	deactivatedAt, lastCheckedAt *time.Time,
) *Activation {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &Activation{
		id:                 id,
		licenseID:          licenseID,
		instanceIdentifier: identifier,
		instanceType:       instanceType,
		metadata:           metadata,
		active:             active,
		activatedAt:        activatedAt,
		deactivatedAt:      deactivatedAt,
		lastCheckedAt:      lastCheckedAt,
	}
}

func (a *Activation) ID() string                 { return a.id }
func (a *Activation) LicenseID() string          { return a.licenseID }
func (a *Activation) InstanceIdentifier() string { return a.instanceIdentifier }
func (a *Activation) InstanceType() InstanceType { return a.instanceType }
func (a *Activation) Metadata() map[string]any   { return a.metadata }
func (a *Activation) IsActive() bool             { return a.active }
func (a *Activation) ActivatedAt() time.Time     { return a.activatedAt }
func (a *Activation) DeactivatedAt() *time.Time  { return a.deactivatedAt }
func (a *Activation) LastCheckedAt() *time.Time  { return a.lastCheckedAt }

// Deactivate releases the seat. It returns false when the seat was already free.
func (a *Activation) Deactivate(now time.Time) bool {
	if !a.active {
		return false
	}
	a.active = false
	a.deactivatedAt = &now
	return true
}
