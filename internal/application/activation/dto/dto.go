// Package dto defines the commands and results of the product API use cases.
package dto

import (
	"time"

	commondto "github.com/keygate-inc/keygate/internal/application/common/dto"
)

// ActivateRequest is the product API body for activation
type ActivateRequest struct {
	ProductSlug        string         `json:"product_slug,omitempty"`
	InstanceIdentifier string         `json:"instance_identifier" validate:"required"`
	InstanceType       string         `json:"instance_type" validate:"required"`
	InstanceMetadata   map[string]any `json:"instance_metadata,omitempty"`
}

// ActivateCommand takes a seat for an installation
type ActivateCommand struct {
	LicenseKey         string
	ProductSlug        string
	InstanceIdentifier string
	InstanceType       string
	Metadata           map[string]any
}

// ActivateResult is the seat held and the license's usage after the call.
// AlreadyActive is true when the instance held the seat before the call.
type ActivateResult struct {
	Activation    commondto.ActivationDTO `json:"activation"`
	Seats         commondto.SeatsDTO      `json:"seats"`
	AlreadyActive bool                    `json:"already_active"`
}

// DeactivateRequest is the product API body for deactivation
type DeactivateRequest struct {
	InstanceIdentifier string `json:"instance_identifier" validate:"required"`
}

// DeactivateCommand releases an installation's seats
type DeactivateCommand struct {
	LicenseKey         string
	InstanceIdentifier string
}

// LicenseSeatsDTO is one license's usage
type LicenseSeatsDTO struct {
	LicenseID string `json:"license_id"`
	ProductID string `json:"product_id"`
	commondto.SeatsDTO
}

// DeactivateResult lists usage for every license under the key
type DeactivateResult struct {
	Deactivated int               `json:"deactivated"`
	Licenses    []LicenseSeatsDTO `json:"licenses"`
}

// CheckCommand reads a key's status, optionally for one installation
type CheckCommand struct {
	LicenseKey         string
	InstanceIdentifier string
}

// LicenseSnapshot is the cacheable part of one license's status
type LicenseSnapshot struct {
	LicenseID   string     `json:"license_id"`
	ProductID   string     `json:"product_id"`
	ProductSlug string     `json:"product_slug"`
	ProductName string     `json:"product_name"`
	Status      string     `json:"status"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	SeatLimit   int        `json:"seat_limit"`
	SeatsUsed   int        `json:"seats_used"`
}

// KeyStatusSnapshot is the cacheable status of a key. Authorization is not
// stored; it is recomputed from Status and ExpiresAt on every read.
type KeyStatusSnapshot struct {
	LicenseKeyID string            `json:"license_key_id"`
	BrandID      string            `json:"brand_id"`
	Licenses     []LicenseSnapshot `json:"licenses"`
	LoadedAt     time.Time         `json:"loaded_at"`
}

// LicenseStatusDTO is one license as seen by Check
type LicenseStatusDTO struct {
	LicenseID   string     `json:"license_id"`
	ProductID   string     `json:"product_id"`
	ProductSlug string     `json:"product_slug"`
	ProductName string     `json:"product_name"`
	Status      string     `json:"status"`
	Authorized  bool       `json:"authorized"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	commondto.SeatsDTO
	InstanceActive bool `json:"instance_active"`
}

// CheckResult is the authorization and seat snapshot of a key
type CheckResult struct {
	LicenseKeyID       string             `json:"license_key_id"`
	Valid              bool               `json:"valid"`
	InstanceIdentifier string             `json:"instance_identifier,omitempty"`
	Licenses           []LicenseStatusDTO `json:"licenses"`
	Attestation        string             `json:"attestation,omitempty"`
	CheckedAt          time.Time          `json:"checked_at"`
}
