package license

import (
	"fmt"
	"time"

	"github.com/keygate-inc/keygate/internal/shared/errors"
)

// License is one product-scoped grant under a license key.
type License struct {
	id           string
	licenseKeyID string
	brandID      string
	productID    string
	status       Status
	seatLimit    int
	expiresAt    *time.Time
	createdAt    time.Time
	updatedAt    time.Time
	version      int
}

// NewLicense creates a valid license. brandID is the tenant of the owning key.
func NewLicense(id, licenseKeyID, brandID, productID string, seatLimit int, expiresAt *time.Time, now time.Time) (*License, error) {
	if id == "" || licenseKeyID == "" || brandID == "" || productID == "" {
		return nil, fmt.Errorf("license id, key id, brand id and product id are required")
	}
	if seatLimit < 1 {
		return nil, errors.NewValidationError("seat_limit must be at least 1")
	}
	if expiresAt != nil && !expiresAt.After(now) {
		return nil, errors.NewValidationError("expires_at must be in the future")
	}

	return &License{
		id:           id,
		licenseKeyID: licenseKeyID,
		brandID:      brandID,
		productID:    productID,
		status:       StatusValid,
		seatLimit:    seatLimit,
		expiresAt:    expiresAt,
		createdAt:    now,
		updatedAt:    now,
		version:      1,
	}, nil
}

// ReconstructLicense rebuilds a license from persistence
func ReconstructLicense(
	id, licenseKeyID, brandID, productID string,
	status Status,
	seatLimit int,
	expiresAt *time.Time,
	createdAt, updatedAt time.Time,
	version int,
) (*License, error) {
	if id == "" {
		return nil, fmt.Errorf("license id cannot be empty")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid license status: %s", status)
	}
	if seatLimit < 1 {
		return nil, fmt.Errorf("invalid seat limit %d for license %s", seatLimit, id)
	}
	return &License{
		id:           id,
		licenseKeyID: licenseKeyID,
		brandID:      brandID,
		productID:    productID,
		status:       status,
		seatLimit:    seatLimit,
		expiresAt:    expiresAt,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
		version:      version,
	}, nil
}

func (l *License) ID() string            { return l.id }
func (l *License) LicenseKeyID() string  { return l.licenseKeyID }
func (l *License) BrandID() string       { return l.brandID }
func (l *License) ProductID() string     { return l.productID }
func (l *License) Status() Status        { return l.status }
func (l *License) SeatLimit() int        { return l.seatLimit }
func (l *License) ExpiresAt() *time.Time { return l.expiresAt }
func (l *License) CreatedAt() time.Time  { return l.createdAt }
func (l *License) UpdatedAt() time.Time  { return l.updatedAt }

// Version returns the aggregate version for optimistic locking
func (l *License) Version() int { return l.version }

// IsAuthorized reports whether the license currently authorizes use. The
// expiry is recomputed against now, so a stored valid status past its
// expires_at does not authorize.
func (l *License) IsAuthorized(now time.Time) bool {
	return l.status == StatusValid && !l.pastExpiry(now)
}

// AuthorizationError returns nil when IsAuthorized, otherwise a
// LicenseNotAuthorizedError naming the reason.
func (l *License) AuthorizationError(now time.Time) error {
	if l.IsAuthorized(now) {
		return nil
	}
	return errors.NewLicenseNotAuthorizedError(l.id, "license is "+l.EffectiveStatus(now).String())
}

// EffectiveStatus is the status as observed at now: a valid license past its
// expiry reads as expired.
func (l *License) EffectiveStatus(now time.Time) Status {
	return EffectiveStatusAt(l.status, l.expiresAt, now)
}

// EffectiveStatusAt applies the read-time expiry rule to a stored status and
// expiry held outside a License, such as a cached snapshot.
func EffectiveStatusAt(s Status, expiresAt *time.Time, now time.Time) Status {
	if s == StatusValid && pastExpiry(expiresAt, now) {
		return StatusExpired
	}
	return s
}

func (l *License) pastExpiry(now time.Time) bool {
	return pastExpiry(l.expiresAt, now)
}

func pastExpiry(expiresAt *time.Time, now time.Time) bool {
	return expiresAt != nil && !now.Before(*expiresAt)
}

// Renew moves expires_at to newExpiresAt and restores an expired license to valid.
func (l *License) Renew(newExpiresAt time.Time, now time.Time) error {
	if _, ok := NextStatus(l.status, ActionRenew); !ok {
		return errors.NewInvalidTransitionError(l.id, l.status.String(), string(ActionRenew))
	}
	if !newExpiresAt.After(now) {
		return errors.NewValidationError("new expires_at must be in the future").WithEntity(l.id)
	}
	if err := l.apply(ActionRenew, now); err != nil {
		return err
	}
	exp := newExpiresAt.UTC()
	l.expiresAt = &exp
	return nil
}

// Suspend moves a valid license to suspended.
func (l *License) Suspend(now time.Time) error {
	return l.apply(ActionSuspend, now)
}

// Resume moves a suspended license back to valid.
func (l *License) Resume(now time.Time) error {
	return l.apply(ActionResume, now)
}

// Cancel terminates the license. Cancelled licenses never transition again.
func (l *License) Cancel(now time.Time) error {
	return l.apply(ActionCancel, now)
}

// Expire records that a valid license has passed its expiry. It is used by
// the sweep and fails when the expiry has not been reached.
func (l *License) Expire(now time.Time) error {
	if l.status == StatusValid && !l.pastExpiry(now) {
		return errors.NewInvalidTransitionError(l.id, l.status.String(), string(ActionExpire))
	}
	return l.apply(ActionExpire, now)
}

// Apply dispatches an action. Renew is excluded since it needs a date.
func (l *License) Apply(a Action, now time.Time) error {
	switch a {
	case ActionSuspend:
		return l.Suspend(now)
	case ActionResume:
		return l.Resume(now)
	case ActionCancel:
		return l.Cancel(now)
	case ActionExpire:
		return l.Expire(now)
	default:
		return errors.NewValidationError(fmt.Sprintf("unsupported action %q", a))
	}
}

func (l *License) apply(a Action, now time.Time) error {
	next, ok := NextStatus(l.status, a)
	if !ok {
		return errors.NewInvalidTransitionError(l.id, l.status.String(), string(a))
	}
	l.status = next
	l.updatedAt = now
	l.version++
	return nil
}
