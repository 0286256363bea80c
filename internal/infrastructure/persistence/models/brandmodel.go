package models

import (
	"time"

	"github.com/keygate-inc/keygate/internal/shared/constants"
)

// BrandModel is the persistence model for tenants
type BrandModel struct {
	ID        string `gorm:"primaryKey;size:36"`
	Name      string `gorm:"not null;size:255"`
	Slug      string `gorm:"not null;size:100;uniqueIndex:idx_brands_slug"`
	KeyPrefix string `gorm:"not null;size:10;uniqueIndex:idx_brands_key_prefix"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (BrandModel) TableName() string {
	return constants.TableBrands
}

// ProductModel is the persistence model for brand products
type ProductModel struct {
	ID        string `gorm:"primaryKey;size:36"`
	BrandID   string `gorm:"not null;size:36;uniqueIndex:idx_products_brand_slug,priority:1"`
	Name      string `gorm:"not null;size:255"`
	Slug      string `gorm:"not null;size:100;uniqueIndex:idx_products_brand_slug,priority:2"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (ProductModel) TableName() string {
	return constants.TableProducts
}

// APIKeyModel stores the digest of a brand API key
type APIKeyModel struct {
	ID         string     `gorm:"primaryKey;size:36"`
	BrandID    string     `gorm:"not null;size:36;index:idx_api_keys_brand"`
	Name       string     `gorm:"not null;size:100"`
	Digest     string     `gorm:"not null;size:64;uniqueIndex:idx_api_keys_digest"`
	Scope      string     `gorm:"not null;size:10"`
	ExpiresAt  *time.Time
	LastUsedAt *time.Time
	RevokedAt  *time.Time
	CreatedAt  time.Time
}

// TableName specifies the table name for GORM
func (APIKeyModel) TableName() string {
	return constants.TableAPIKeys
}
