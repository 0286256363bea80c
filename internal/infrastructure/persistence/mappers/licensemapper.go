package mappers

import (
	"fmt"

	"github.com/keygate-inc/keygate/internal/domain/license"
	"github.com/keygate-inc/keygate/internal/infrastructure/persistence/models"
)

// LicenseMapper handles the conversion between license keys, licenses and their models.
type LicenseMapper interface {
	KeyToModel(k *license.LicenseKey) *models.LicenseKeyModel
	KeyToDomain(model *models.LicenseKeyModel) *license.LicenseKey

	// ToModel converts a license to a persistence model. BrandID is not persisted.
	ToModel(l *license.License) *models.LicenseModel

	// ToDomain requires model.BrandID to have been selected through the key join.
	ToDomain(model *models.LicenseModel) (*license.License, error)
	ToDomainList(models []models.LicenseModel) ([]*license.License, error)
}

// LicenseMapperImpl is the concrete implementation of LicenseMapper.
type LicenseMapperImpl struct{}

// NewLicenseMapper creates a new LicenseMapper.
func NewLicenseMapper() LicenseMapper {
	return &LicenseMapperImpl{}
}

func (m *LicenseMapperImpl) KeyToModel(k *license.LicenseKey) *models.LicenseKeyModel {
	return &models.LicenseKeyModel{
		ID:            k.ID(),
		BrandID:       k.BrandID(),
		Digest:        k.Digest(),
		CustomerEmail: k.CustomerEmail(),
		CreatedAt:     k.CreatedAt(),
		UpdatedAt:     k.UpdatedAt(),
	}
}

func (m *LicenseMapperImpl) KeyToDomain(model *models.LicenseKeyModel) *license.LicenseKey {
	return license.ReconstructLicenseKey(
		model.ID,
		model.BrandID,
		model.Digest,
		model.CustomerEmail,
		model.CreatedAt.UTC(),
		model.UpdatedAt.UTC(),
	)
}

func (m *LicenseMapperImpl) ToModel(l *license.License) *models.LicenseModel {
	return &models.LicenseModel{
		ID:           l.ID(),
		LicenseKeyID: l.LicenseKeyID(),
		ProductID:    l.ProductID(),
		Status:       l.Status().String(),
		SeatLimit:    l.SeatLimit(),
		ExpiresAt:    l.ExpiresAt(),
		CreatedAt:    l.CreatedAt(),
		UpdatedAt:    l.UpdatedAt(),
		Version:      l.Version(),
	}
}

func (m *LicenseMapperImpl) ToDomain(model *models.LicenseModel) (*license.License, error) {
	if model.BrandID == "" {
		return nil, fmt.Errorf("license %s loaded without its brand", model.ID)
	}
	return license.ReconstructLicense(
		model.ID,
		model.LicenseKeyID,
		model.BrandID,
		model.ProductID,
		license.Status(model.Status),
		model.SeatLimit,
		utcPtr(model.ExpiresAt),
		model.CreatedAt.UTC(),
		model.UpdatedAt.UTC(),
		model.Version,
	)
}

func (m *LicenseMapperImpl) ToDomainList(list []models.LicenseModel) ([]*license.License, error) {
	out := make([]*license.License, 0, len(list))
	for i := range list {
		l, err := m.ToDomain(&list[i])
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}
