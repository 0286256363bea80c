package usecases

import (
	"context"
	"time"

	"github.com/keygate-inc/keygate/internal/application/common"
	"github.com/keygate-inc/keygate/internal/application/licensing/dto"
	"github.com/keygate-inc/keygate/internal/domain/license"
	"github.com/keygate-inc/keygate/internal/domain/shared/events"
	"github.com/keygate-inc/keygate/internal/shared/biztime"
	"github.com/keygate-inc/keygate/internal/shared/db"
	"github.com/keygate-inc/keygate/internal/shared/errors"
	"github.com/keygate-inc/keygate/internal/shared/logger"
)

// DefaultExpireBatchSize bounds one sweep when the caller gives no size.
const DefaultExpireBatchSize = 500

// ExpireOverdueUseCase flips stored valid licenses past their expiry to expired.
// Authorization never depends on it; it keeps stored status accurate for reporting.
type ExpireOverdueUseCase struct {
	licenseRepo license.Repository
	txMgr       *db.TransactionManager
	publisher   events.EventPublisher
	clock       biztime.Clock
	logger      logger.Interface
}

// NewExpireOverdueUseCase creates a new expiry sweep use case
func NewExpireOverdueUseCase(
	licenseRepo license.Repository,
	txMgr *db.TransactionManager,
	publisher events.EventPublisher,
	clock biztime.Clock,
	logger logger.Interface,
) *ExpireOverdueUseCase {
	return &ExpireOverdueUseCase{
		licenseRepo: licenseRepo,
		txMgr:       txMgr,
		publisher:   publisher,
		clock:       clock,
		logger:      logger,
	}
}

// Execute expires one batch. Each license commits on its own, so a failure
// part way keeps the licenses already expired.
func (uc *ExpireOverdueUseCase) Execute(ctx context.Context, cmd dto.ExpireOverdueCommand) (*dto.ExpireOverdueResult, error) {
	batch := cmd.BatchSize
	if batch <= 0 {
		batch = DefaultExpireBatchSize
	}
	now := uc.clock.Now()

	overdue, err := uc.licenseRepo.ListOverdue(ctx, now, batch)
	if err != nil {
		return nil, db.MapError(ctx, err)
	}

	result := &dto.ExpireOverdueResult{
		Scanned:    len(overdue),
		DryRun:     cmd.DryRun,
		LicenseIDs: make([]string, 0, len(overdue)),
	}
	if cmd.DryRun {
		for _, l := range overdue {
			result.LicenseIDs = append(result.LicenseIDs, l.ID())
		}
		return result, nil
	}

	for _, candidate := range overdue {
		expired, err := uc.expireOne(ctx, candidate, now)
		if err != nil {
			return result, err
		}
		if expired {
			result.Expired++
			result.LicenseIDs = append(result.LicenseIDs, candidate.ID())
		}
	}

	if result.Expired > 0 {
		uc.logger.Infow("expired overdue licenses", "count", result.Expired, "scanned", result.Scanned)
	}
	return result, nil
}

// expireOne re-reads the license under lock; a license renewed or suspended
// since the scan is skipped.
func (uc *ExpireOverdueUseCase) expireOne(ctx context.Context, candidate *license.License, now time.Time) (bool, error) {
	expired := false
	err := uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		l, err := uc.licenseRepo.GetByIDForUpdate(txCtx, candidate.BrandID(), candidate.ID())
		if err != nil {
			return err
		}
		from := l.Status()
		if err := l.Expire(now); err != nil {
			if errors.IsType(err, errors.ErrorTypeInvalidTransition) {
				return nil
			}
			return err
		}
		if err := uc.licenseRepo.Update(txCtx, l); err != nil {
			return err
		}
		common.PublishAfterCommit(txCtx, uc.publisher, license.NewStatusChangedEvent(license.ActionExpire, from, l, now))
		expired = true
		return nil
	})
	return expired, err
}
