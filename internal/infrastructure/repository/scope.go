package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/keygate-inc/keygate/internal/shared/errors"
)

// notFoundOrForeign runs after a brand-scoped lookup misses. It probes the
// table without the brand filter so the two outcomes can be told apart
// internally; callers outside the process see the same NotFound either way.
func notFoundOrForeign(tx *gorm.DB, model any, entity, id string) error {
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return fmt.Errorf("failed to probe %s: %w", entity, err)
	}
	if n > 0 {
		return errors.NewCrossTenantAccessError(entity, id)
	}
	return errors.NewNotFoundError(entity + " not found")
}
