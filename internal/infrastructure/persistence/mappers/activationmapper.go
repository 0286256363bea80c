package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/keygate-inc/keygate/internal/domain/activation"
	"github.com/keygate-inc/keygate/internal/domain/idempotency"
	"github.com/keygate-inc/keygate/internal/infrastructure/persistence/models"
)

// ActivationMapper handles the conversion between activations and their model.
type ActivationMapper interface {
	ToModel(a *activation.Activation) (*models.ActivationModel, error)
	ToDomain(model *models.ActivationModel) (*activation.Activation, error)
}

// ActivationMapperImpl is the concrete implementation of ActivationMapper.
type ActivationMapperImpl struct{}

// NewActivationMapper creates a new ActivationMapper.
func NewActivationMapper() ActivationMapper {
	return &ActivationMapperImpl{}
}

func (m *ActivationMapperImpl) ToModel(a *activation.Activation) (*models.ActivationModel, error) {
	meta, err := json.Marshal(a.Metadata())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal activation metadata: %w", err)
	}

	model := &models.ActivationModel{
		ID:                 a.ID(),
		LicenseID:          a.LicenseID(),
		InstanceIdentifier: a.InstanceIdentifier(),
		InstanceType:       a.InstanceType().String(),
		Active:             a.IsActive(),
		Metadata:           datatypes.JSON(meta),
		ActivatedAt:        a.ActivatedAt(),
		DeactivatedAt:      a.DeactivatedAt(),
		LastCheckedAt:      a.LastCheckedAt(),
	}
	if a.IsActive() {
		identifier := a.InstanceIdentifier()
		model.ActiveInstance = &identifier
	}
	return model, nil
}

func (m *ActivationMapperImpl) ToDomain(model *models.ActivationModel) (*activation.Activation, error) {
	var meta map[string]any
	if len(model.Metadata) > 0 {
		if err := json.Unmarshal(model.Metadata, &meta); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata of activation %s: %w", model.ID, err)
		}
	}
	return activation.ReconstructActivation(
		model.ID,
		model.LicenseID,
		model.InstanceIdentifier,
		activation.InstanceType(model.InstanceType),
		meta,
		model.Active,
		model.ActivatedAt.UTC(),
		utcPtr(model.DeactivatedAt),
		utcPtr(model.LastCheckedAt),
	), nil
}

// IdempotencyRecordToModel converts a record to its model.
func IdempotencyRecordToModel(r *idempotency.Record) *models.IdempotencyRecordModel {
	return &models.IdempotencyRecordModel{
		TenantID:   r.TenantID,
		Key:        r.Key,
		StatusCode: r.StatusCode,
		Response:   r.Response,
		CreatedAt:  r.CreatedAt,
		ExpiresAt:  r.ExpiresAt,
	}
}

// IdempotencyRecordToDomain converts a model to a record.
func IdempotencyRecordToDomain(model *models.IdempotencyRecordModel) *idempotency.Record {
	return &idempotency.Record{
		TenantID:   model.TenantID,
		Key:        model.Key,
		StatusCode: model.StatusCode,
		Response:   model.Response,
		CreatedAt:  model.CreatedAt.UTC(),
		ExpiresAt:  model.ExpiresAt.UTC(),
	}
}
