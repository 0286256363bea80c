package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/keygate-inc/keygate/internal/domain/license"
	"github.com/keygate-inc/keygate/internal/infrastructure/persistence/mappers"
	"github.com/keygate-inc/keygate/internal/infrastructure/persistence/models"
	"github.com/keygate-inc/keygate/internal/shared/constants"
	"github.com/keygate-inc/keygate/internal/shared/db"
	"github.com/keygate-inc/keygate/internal/shared/errors"
	"github.com/keygate-inc/keygate/internal/shared/logger"
)

// licenseColumns selects a license together with the brand of its key.
const licenseColumns = constants.TableLicenses + ".*, " + constants.TableLicenseKeys + ".brand_id"

// LicenseKeyRepositoryImpl implements license.KeyRepository
type LicenseKeyRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.LicenseMapper
	logger logger.Interface
}

// NewLicenseKeyRepository creates a new license key repository instance
func NewLicenseKeyRepository(db *gorm.DB, logger logger.Interface) license.KeyRepository {
	return &LicenseKeyRepositoryImpl{
		db:     db,
		mapper: mappers.NewLicenseMapper(),
		logger: logger,
	}
}

func (r *LicenseKeyRepositoryImpl) Create(ctx context.Context, k *license.LicenseKey) error {
	if err := db.GetTxFromContext(ctx, r.db).Create(r.mapper.KeyToModel(k)).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("license key already exists")
		}
		r.logger.Errorw("failed to create license key", "brand_id", k.BrandID(), "error", err)
		return fmt.Errorf("failed to create license key: %w", err)
	}
	return nil
}

func (r *LicenseKeyRepositoryImpl) GetByDigest(ctx context.Context, digest string) (*license.LicenseKey, error) {
	var model models.LicenseKeyModel
	err := db.GetTxFromContext(ctx, r.db).Where("digest = ?", digest).First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get license key: %w", err)
	}
	return r.mapper.KeyToDomain(&model), nil
}

func (r *LicenseKeyRepositoryImpl) GetByID(ctx context.Context, brandID, id string) (*license.LicenseKey, error) {
	tx := db.GetTxFromContext(ctx, r.db)
	var model models.LicenseKeyModel
	err := tx.Where("brand_id = ? AND id = ?", brandID, id).First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return nil, notFoundOrForeign(tx, &models.LicenseKeyModel{}, "license key", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get license key: %w", err)
	}
	return r.mapper.KeyToDomain(&model), nil
}

func (r *LicenseKeyRepositoryImpl) ListByEmail(ctx context.Context, brandID, email string) ([]*license.LicenseKey, error) {
	var list []models.LicenseKeyModel
	if err := db.GetTxFromContext(ctx, r.db).
		Where("brand_id = ? AND customer_email = ?", brandID, email).
		Order("created_at ASC, id ASC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list license keys: %w", err)
	}

	keys := make([]*license.LicenseKey, len(list))
	for i := range list {
		keys[i] = r.mapper.KeyToDomain(&list[i])
	}
	return keys, nil
}

// LicenseRepositoryImpl implements license.Repository
type LicenseRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.LicenseMapper
	logger logger.Interface
}

// NewLicenseRepository creates a new license repository instance
func NewLicenseRepository(db *gorm.DB, logger logger.Interface) license.Repository {
	return &LicenseRepositoryImpl{
		db:     db,
		mapper: mappers.NewLicenseMapper(),
		logger: logger,
	}
}

func (r *LicenseRepositoryImpl) Create(ctx context.Context, l *license.License) error {
	if err := db.GetTxFromContext(ctx, r.db).Create(r.mapper.ToModel(l)).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("license for this product already exists under the key")
		}
		r.logger.Errorw("failed to create license",
			"license_key_id", l.LicenseKeyID(),
			"product_id", l.ProductID(),
			"error", err)
		return fmt.Errorf("failed to create license: %w", err)
	}
	return nil
}

func (r *LicenseRepositoryImpl) GetByID(ctx context.Context, brandID, id string) (*license.License, error) {
	return r.get(ctx, brandID, id, false)
}

func (r *LicenseRepositoryImpl) GetByIDForUpdate(ctx context.Context, brandID, id string) (*license.License, error) {
	return r.get(ctx, brandID, id, true)
}

func (r *LicenseRepositoryImpl) get(ctx context.Context, brandID, id string, lock bool) (*license.License, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	query := tx.Model(&models.LicenseModel{}).
		Select(licenseColumns).
		Scopes(db.LicensesOfBrand(brandID)).
		Where(constants.TableLicenses+".id = ?", id)
	if lock {
		query = query.Clauses(clause.Locking{
			Strength: "UPDATE",
			Table:    clause.Table{Name: constants.TableLicenses},
		})
	}

	var model models.LicenseModel
	err := query.First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return nil, notFoundOrForeign(tx, &models.LicenseModel{}, "license", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get license: %w", err)
	}
	return r.mapper.ToDomain(&model)
}

func (r *LicenseRepositoryImpl) ListByKey(ctx context.Context, brandID, keyID string) ([]*license.License, error) {
	var list []models.LicenseModel
	if err := db.GetTxFromContext(ctx, r.db).
		Model(&models.LicenseModel{}).
		Select(licenseColumns).
		Scopes(db.LicensesOfBrand(brandID)).
		Where(constants.TableLicenses+".license_key_id = ?", keyID).
		Order(constants.TableLicenses + ".created_at ASC, " + constants.TableLicenses + ".id ASC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list licenses: %w", err)
	}
	return r.mapper.ToDomainList(list)
}

func (r *LicenseRepositoryImpl) Update(ctx context.Context, l *license.License) error {
	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.LicenseModel{}).
		Where("id = ? AND version = ?", l.ID(), l.Version()-1).
		Updates(map[string]any{
			"status":     l.Status().String(),
			"expires_at": l.ExpiresAt(),
			"updated_at": l.UpdatedAt(),
			"version":    l.Version(),
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update license", "id", l.ID(), "error", result.Error)
		return fmt.Errorf("failed to update license: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewConflictError("license was modified concurrently").WithEntity(l.ID())
	}
	return nil
}

func (r *LicenseRepositoryImpl) ListOverdue(ctx context.Context, now time.Time, limit int) ([]*license.License, error) {
	var list []models.LicenseModel
	if err := db.GetTxFromContext(ctx, r.db).
		Model(&models.LicenseModel{}).
		Select(licenseColumns).
		Joins("JOIN "+constants.TableLicenseKeys+" ON "+constants.TableLicenseKeys+".id = "+constants.TableLicenses+".license_key_id").
		Where(constants.TableLicenses+".status = ?", license.StatusValid.String()).
		Where(constants.TableLicenses+".expires_at IS NOT NULL AND "+constants.TableLicenses+".expires_at <= ?", now).
		Order(constants.TableLicenses + ".expires_at ASC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list overdue licenses: %w", err)
	}
	return r.mapper.ToDomainList(list)
}
