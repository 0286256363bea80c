package mappers

import (
	"time"

	"github.com/keygate-inc/keygate/internal/domain/tenant"
	"github.com/keygate-inc/keygate/internal/infrastructure/persistence/models"
)

// TenantMapper converts brands, products and API keys between domain and persistence.
type TenantMapper interface {
	BrandToModel(b *tenant.Brand) *models.BrandModel
	BrandToDomain(model *models.BrandModel) (*tenant.Brand, error)
	ProductToModel(p *tenant.Product) *models.ProductModel
	ProductToDomain(model *models.ProductModel) *tenant.Product
	APIKeyToModel(k *tenant.APIKey) *models.APIKeyModel
	APIKeyToDomain(model *models.APIKeyModel) *tenant.APIKey
}

// TenantMapperImpl is the concrete implementation of TenantMapper.
type TenantMapperImpl struct{}

// NewTenantMapper creates a new TenantMapper.
func NewTenantMapper() TenantMapper {
	return &TenantMapperImpl{}
}

func (m *TenantMapperImpl) BrandToModel(b *tenant.Brand) *models.BrandModel {
	return &models.BrandModel{
		ID:        b.ID(),
		Name:      b.Name(),
		Slug:      b.Slug(),
		KeyPrefix: b.KeyPrefix(),
		CreatedAt: b.CreatedAt(),
		UpdatedAt: b.UpdatedAt(),
	}
}

func (m *TenantMapperImpl) BrandToDomain(model *models.BrandModel) (*tenant.Brand, error) {
	return tenant.ReconstructBrand(model.ID, model.Name, model.Slug, model.KeyPrefix, model.CreatedAt.UTC(), model.UpdatedAt.UTC())
}

func (m *TenantMapperImpl) ProductToModel(p *tenant.Product) *models.ProductModel {
	return &models.ProductModel{
		ID:        p.ID(),
		BrandID:   p.BrandID(),
		Name:      p.Name(),
		Slug:      p.Slug(),
		CreatedAt: p.CreatedAt(),
		UpdatedAt: p.UpdatedAt(),
	}
}

func (m *TenantMapperImpl) ProductToDomain(model *models.ProductModel) *tenant.Product {
	return tenant.ReconstructProduct(model.ID, model.BrandID, model.Name, model.Slug, model.CreatedAt.UTC(), model.UpdatedAt.UTC())
}

func (m *TenantMapperImpl) APIKeyToModel(k *tenant.APIKey) *models.APIKeyModel {
	return &models.APIKeyModel{
		ID:         k.ID(),
		BrandID:    k.BrandID(),
		Name:       k.Name(),
		Digest:     k.Digest(),
		Scope:      k.Scope().String(),
		ExpiresAt:  k.ExpiresAt(),
		LastUsedAt: k.LastUsedAt(),
		RevokedAt:  k.RevokedAt(),
		CreatedAt:  k.CreatedAt(),
	}
}

func (m *TenantMapperImpl) APIKeyToDomain(model *models.APIKeyModel) *tenant.APIKey {
	return tenant.ReconstructAPIKey(
		model.ID,
		model.BrandID,
		model.Name,
		model.Digest,
		tenant.Scope(model.Scope),
		utcPtr(model.ExpiresAt),
		utcPtr(model.LastUsedAt),
		utcPtr(model.RevokedAt),
		model.CreatedAt.UTC(),
	)
}

// utcPtr normalizes an optional timestamp read back from the driver.
func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
