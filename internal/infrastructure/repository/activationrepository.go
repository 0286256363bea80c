package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/keygate-inc/keygate/internal/domain/activation"
	"github.com/keygate-inc/keygate/internal/infrastructure/persistence/mappers"
	"github.com/keygate-inc/keygate/internal/infrastructure/persistence/models"
	"github.com/keygate-inc/keygate/internal/shared/constants"
	"github.com/keygate-inc/keygate/internal/shared/db"
	"github.com/keygate-inc/keygate/internal/shared/errors"
	"github.com/keygate-inc/keygate/internal/shared/logger"
)

// ActivationRepositoryImpl implements activation.Repository
type ActivationRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.ActivationMapper
	logger logger.Interface
}

// NewActivationRepository creates a new activation repository instance
func NewActivationRepository(db *gorm.DB, logger logger.Interface) activation.Repository {
	return &ActivationRepositoryImpl{
		db:     db,
		mapper: mappers.NewActivationMapper(),
		logger: logger,
	}
}

func (r *ActivationRepositoryImpl) Create(ctx context.Context, a *activation.Activation) error {
	model, err := r.mapper.ToModel(a)
	if err != nil {
		return err
	}
	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("instance is already activated").WithEntity(a.LicenseID())
		}
		r.logger.Errorw("failed to create activation",
			"license_id", a.LicenseID(),
			"instance_identifier", a.InstanceIdentifier(),
			"error", err)
		return fmt.Errorf("failed to create activation: %w", err)
	}
	return nil
}

func (r *ActivationRepositoryImpl) Update(ctx context.Context, a *activation.Activation) error {
	model, err := r.mapper.ToModel(a)
	if err != nil {
		return err
	}
	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.ActivationModel{ID: a.ID()}).
		Select("active", "active_instance", "deactivated_at", "last_checked_at", "metadata", "updated_at").
		Updates(model)
	if result.Error != nil {
		r.logger.Errorw("failed to update activation", "id", a.ID(), "error", result.Error)
		return fmt.Errorf("failed to update activation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("activation not found")
	}
	return nil
}

func (r *ActivationRepositoryImpl) TouchChecked(ctx context.Context, id string, at time.Time) error {
	if err := db.GetTxFromContext(ctx, r.db).
		Model(&models.ActivationModel{}).
		Where("id = ? AND active = ?", id, true).
		Update("last_checked_at", at).Error; err != nil {
		return fmt.Errorf("failed to touch activation: %w", err)
	}
	return nil
}

func (r *ActivationRepositoryImpl) GetActive(ctx context.Context, brandID, licenseID, identifier string) (*activation.Activation, error) {
	var model models.ActivationModel
	err := db.GetTxFromContext(ctx, r.db).
		Model(&models.ActivationModel{}).
		Select(constants.TableActivations+".*").
		Scopes(db.ActivationsOfBrand(brandID), db.ActiveOnly()).
		Where(constants.TableActivations+".license_id = ? AND "+constants.TableActivations+".instance_identifier = ?", licenseID, identifier).
		First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activation: %w", err)
	}
	return r.mapper.ToDomain(&model)
}

func (r *ActivationRepositoryImpl) CountActive(ctx context.Context, brandID, licenseID string) (int, error) {
	var n int64
	if err := db.GetTxFromContext(ctx, r.db).
		Model(&models.ActivationModel{}).
		Scopes(db.ActivationsOfBrand(brandID), db.ActiveOnly()).
		Where(constants.TableActivations+".license_id = ?", licenseID).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count activations: %w", err)
	}
	return int(n), nil
}

func (r *ActivationRepositoryImpl) CountActiveByLicenses(ctx context.Context, brandID string, licenseIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(licenseIDs))
	if len(licenseIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		LicenseID string
		Used      int
	}
	if err := db.GetTxFromContext(ctx, r.db).
		Model(&models.ActivationModel{}).
		Select(constants.TableActivations+".license_id AS license_id, COUNT(*) AS used").
		Scopes(db.ActivationsOfBrand(brandID), db.ActiveOnly()).
		Where(constants.TableActivations+".license_id IN ?", licenseIDs).
		Group(constants.TableActivations + ".license_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count activations: %w", err)
	}
	for _, row := range rows {
		counts[row.LicenseID] = row.Used
	}
	return counts, nil
}
