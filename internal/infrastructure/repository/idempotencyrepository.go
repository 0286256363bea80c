package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/keygate-inc/keygate/internal/domain/idempotency"
	"github.com/keygate-inc/keygate/internal/infrastructure/persistence/mappers"
	"github.com/keygate-inc/keygate/internal/infrastructure/persistence/models"
	"github.com/keygate-inc/keygate/internal/shared/db"
	"github.com/keygate-inc/keygate/internal/shared/errors"
	"github.com/keygate-inc/keygate/internal/shared/logger"
)

// IdempotencyRepositoryImpl implements idempotency.Repository
type IdempotencyRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewIdempotencyRepository creates a new idempotency record repository instance
func NewIdempotencyRepository(db *gorm.DB, logger logger.Interface) idempotency.Repository {
	return &IdempotencyRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

func (r *IdempotencyRepositoryImpl) Get(ctx context.Context, tenantID, key string) (*idempotency.Record, error) {
	var model models.IdempotencyRecordModel
	err := db.GetTxFromContext(ctx, r.db).
		Where("tenant_id = ? AND idempotency_key = ?", tenantID, key).
		First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get idempotency record: %w", err)
	}
	return mappers.IdempotencyRecordToDomain(&model), nil
}

func (r *IdempotencyRepositoryImpl) Insert(ctx context.Context, rec *idempotency.Record) error {
	if err := db.GetTxFromContext(ctx, r.db).Create(mappers.IdempotencyRecordToModel(rec)).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return idempotency.ErrDuplicate
		}
		r.logger.Errorw("failed to insert idempotency record", "tenant_id", rec.TenantID, "error", err)
		return fmt.Errorf("failed to insert idempotency record: %w", err)
	}
	return nil
}

func (r *IdempotencyRepositoryImpl) DeleteExpiredKey(ctx context.Context, tenantID, key string, now time.Time) error {
	if err := db.GetTxFromContext(ctx, r.db).
		Where("tenant_id = ? AND idempotency_key = ? AND expires_at <= ?", tenantID, key, now).
		Delete(&models.IdempotencyRecordModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete expired idempotency record: %w", err)
	}
	return nil
}

func (r *IdempotencyRepositoryImpl) DeleteExpired(ctx context.Context, now time.Time, limit int) (int64, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var ids []uint
	if err := tx.Model(&models.IdempotencyRecordModel{}).
		Where("expires_at <= ?", now).
		Order("expires_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error; err != nil {
		return 0, fmt.Errorf("failed to find expired idempotency records: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	result := tx.Where("id IN ?", ids).Delete(&models.IdempotencyRecordModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge idempotency records: %w", result.Error)
	}
	return result.RowsAffected, nil
}
