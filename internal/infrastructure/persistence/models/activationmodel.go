package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/keygate-inc/keygate/internal/shared/constants"
)

// ActivationModel is the persistence model for a seat.
// ActiveInstance mirrors InstanceIdentifier while the seat is held and is NULL
// afterwards, so the unique index only constrains active rows.
type ActivationModel struct {
	ID                 string  `gorm:"primaryKey;size:36"`
	LicenseID          string  `gorm:"not null;size:36;index:idx_activations_license_active,priority:1;uniqueIndex:idx_activations_active_instance,priority:1"`
	InstanceIdentifier string  `gorm:"not null;size:500"`
	InstanceType       string  `gorm:"not null;size:20"`
	ActiveInstance     *string `gorm:"size:500;uniqueIndex:idx_activations_active_instance,priority:2"`
	Active             bool    `gorm:"not null;index:idx_activations_license_active,priority:2"`
	Metadata           datatypes.JSON
	ActivatedAt        time.Time  `gorm:"not null"`
	DeactivatedAt      *time.Time
	LastCheckedAt      *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName specifies the table name for GORM
func (ActivationModel) TableName() string {
	return constants.TableActivations
}

// IdempotencyRecordModel stores a replayable response
type IdempotencyRecordModel struct {
	ID         uint      `gorm:"primaryKey"`
	TenantID   string    `gorm:"not null;size:36;uniqueIndex:idx_idempotency_tenant_key,priority:1"`
	Key        string    `gorm:"column:idempotency_key;not null;size:255;uniqueIndex:idx_idempotency_tenant_key,priority:2"`
	StatusCode int       `gorm:"not null"`
	Response   []byte    `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
	ExpiresAt  time.Time `gorm:"not null;index:idx_idempotency_expires"`
}

// TableName specifies the table name for GORM
func (IdempotencyRecordModel) TableName() string {
	return constants.TableIdempotencyRecords
}

// AllModels lists every model for AutoMigrate.
func AllModels() []any {
	return []any{
		&BrandModel{},
		&ProductModel{},
		&APIKeyModel{},
		&LicenseKeyModel{},
		&LicenseModel{},
		&ActivationModel{},
		&IdempotencyRecordModel{},
	}
}
