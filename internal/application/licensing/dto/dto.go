// Package dto defines the commands and results of the license lifecycle use cases.
package dto

import (
	"time"

	commondto "github.com/keygate-inc/keygate/internal/application/common/dto"
	"github.com/keygate-inc/keygate/internal/domain/license"
	"github.com/keygate-inc/keygate/internal/domain/tenant"
)

// ProvisionRequest is the brand API body for provisioning
type ProvisionRequest struct {
	CustomerEmail string     `json:"customer_email" validate:"required"`
	ProductIDs    []string   `json:"product_ids" validate:"required,min=1,dive,required"`
	SeatLimit     int        `json:"seat_limit" validate:"required"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// ProvisionCommand creates a license key and one license per product
type ProvisionCommand struct {
	Tenant        tenant.Context
	CustomerEmail string
	ProductIDs    []string
	SeatLimit     int
	ExpiresAt     *time.Time
}

// ProvisionResult carries the only copy of the plaintext key
type ProvisionResult struct {
	LicenseKey    string                 `json:"license_key"`
	LicenseKeyID  string                 `json:"license_key_id"`
	CustomerEmail string                 `json:"customer_email"`
	Licenses      []commondto.LicenseDTO `json:"licenses"`
}

// RenewRequest is the brand API body for renewal
type RenewRequest struct {
	ExpiresAt time.Time `json:"expires_at" validate:"required"`
}

// RenewCommand moves a license's expiry forward
type RenewCommand struct {
	Tenant    tenant.Context
	LicenseID string
	ExpiresAt time.Time
}

// TransitionCommand applies suspend, resume or cancel
type TransitionCommand struct {
	Tenant    tenant.Context
	LicenseID string
	Action    license.Action
}

// GetLicenseQuery reads one license
type GetLicenseQuery struct {
	Tenant    tenant.Context
	LicenseID string
}

// ListByEmailQuery reads every key issued to a customer
type ListByEmailQuery struct {
	Tenant tenant.Context
	Email  string
}

// LicenseKeyDTO is a key without its secret
type LicenseKeyDTO struct {
	ID            string                 `json:"id"`
	CustomerEmail string                 `json:"customer_email"`
	CreatedAt     time.Time              `json:"created_at"`
	Licenses      []commondto.LicenseDTO `json:"licenses"`
}

// ListByEmailResult groups a customer's keys
type ListByEmailResult struct {
	CustomerEmail string          `json:"customer_email"`
	LicenseKeys   []LicenseKeyDTO `json:"license_keys"`
}

// ExpireOverdueCommand runs one sweep batch
type ExpireOverdueCommand struct {
	BatchSize int
	DryRun    bool
}

// ExpireOverdueResult reports a sweep batch
type ExpireOverdueResult struct {
	Scanned    int      `json:"scanned"`
	Expired    int      `json:"expired"`
	DryRun     bool     `json:"dry_run"`
	LicenseIDs []string `json:"license_ids"`
}
