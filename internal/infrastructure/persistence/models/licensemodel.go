package models

import (
	"time"

	"github.com/keygate-inc/keygate/internal/shared/constants"
)

// LicenseKeyModel stores a customer credential by digest only
type LicenseKeyModel struct {
	ID            string `gorm:"primaryKey;size:36"`
	BrandID       string `gorm:"not null;size:36;index:idx_license_keys_brand_email,priority:1"`
	Digest        string `gorm:"not null;size:64;uniqueIndex:idx_license_keys_digest"`
	CustomerEmail string `gorm:"not null;size:320;index:idx_license_keys_brand_email,priority:2"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName specifies the table name for GORM
func (LicenseKeyModel) TableName() string {
	return constants.TableLicenseKeys
}

// LicenseModel is the persistence model for a product grant
type LicenseModel struct {
	ID           string     `gorm:"primaryKey;size:36"`
	LicenseKeyID string     `gorm:"not null;size:36;uniqueIndex:idx_licenses_key_product,priority:1"`
	ProductID    string     `gorm:"not null;size:36;uniqueIndex:idx_licenses_key_product,priority:2"`
	Status       string     `gorm:"not null;size:20;index:idx_licenses_status_expires,priority:1"`
	SeatLimit    int        `gorm:"not null"`
	ExpiresAt    *time.Time `gorm:"index:idx_licenses_status_expires,priority:2"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int `gorm:"not null;default:1"`

	// BrandID is read through the owning key and never written.
	BrandID string `gorm:"->;-:migration"`
}

// TableName specifies the table name for GORM
func (LicenseModel) TableName() string {
	return constants.TableLicenses
}
