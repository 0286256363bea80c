// Package dto provides data transfer objects shared by the brand and product APIs.
package dto

import (
	"time"

	"github.com/keygate-inc/keygate/internal/domain/activation"
	"github.com/keygate-inc/keygate/internal/domain/license"
	"github.com/keygate-inc/keygate/internal/domain/tenant"
)

// SeatsDTO is a license's seat consumption
type SeatsDTO struct {
	SeatLimit      int `json:"seat_limit"`
	SeatsUsed      int `json:"seats_used"`
	SeatsRemaining int `json:"seats_remaining"`
}

// NewSeatsDTO converts a usage snapshot
func NewSeatsDTO(u activation.SeatUsage) SeatsDTO {
	return SeatsDTO{
		SeatLimit:      u.Limit,
		SeatsUsed:      u.Used,
		SeatsRemaining: u.Remaining(),
	}
}

// LicenseDTO represents a license with its seat usage.
// Status is the effective status at read time; StoredStatus is what storage holds.
type LicenseDTO struct {
	ID           string     `json:"id"`
	LicenseKeyID string     `json:"license_key_id"`
	ProductID    string     `json:"product_id"`
	ProductSlug  string     `json:"product_slug,omitempty"`
	ProductName  string     `json:"product_name,omitempty"`
	Status       string     `json:"status"`
	StoredStatus string     `json:"stored_status"`
	Authorized   bool       `json:"authorized"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	SeatsDTO
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToLicenseDTO converts a license. product may be nil.
func ToLicenseDTO(l *license.License, product *tenant.Product, seatsUsed int, now time.Time) LicenseDTO {
	d := LicenseDTO{
		ID:           l.ID(),
		LicenseKeyID: l.LicenseKeyID(),
		ProductID:    l.ProductID(),
		Status:       l.EffectiveStatus(now).String(),
		StoredStatus: l.Status().String(),
		Authorized:   l.IsAuthorized(now),
		ExpiresAt:    l.ExpiresAt(),
		SeatsDTO:     NewSeatsDTO(activation.SeatUsage{Limit: l.SeatLimit(), Used: seatsUsed}),
		CreatedAt:    l.CreatedAt(),
		UpdatedAt:    l.UpdatedAt(),
	}
	if product != nil {
		d.ProductSlug = product.Slug()
		d.ProductName = product.Name()
	}
	return d
}

// ActivationDTO represents a seat
type ActivationDTO struct {
	ID                 string         `json:"id"`
	LicenseID          string         `json:"license_id"`
	InstanceIdentifier string         `json:"instance_identifier"`
	InstanceType       string         `json:"instance_type"`
	Metadata           map[string]any `json:"instance_metadata,omitempty"`
	Active             bool           `json:"active"`
	ActivatedAt        time.Time      `json:"activated_at"`
	DeactivatedAt      *time.Time     `json:"deactivated_at,omitempty"`
	LastCheckedAt      *time.Time     `json:"last_checked_at,omitempty"`
}

// ToActivationDTO converts an activation
func ToActivationDTO(a *activation.Activation) ActivationDTO {
	return ActivationDTO{
		ID:                 a.ID(),
		LicenseID:          a.LicenseID(),
		InstanceIdentifier: a.InstanceIdentifier(),
		InstanceType:       a.InstanceType().String(),
		Metadata:           a.Metadata(),
		Active:             a.IsActive(),
		ActivatedAt:        a.ActivatedAt(),
		DeactivatedAt:      a.DeactivatedAt(),
		LastCheckedAt:      a.LastCheckedAt(),
	}
}
