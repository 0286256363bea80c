package usecases

import (
	"context"

	"github.com/keygate-inc/keygate/internal/application/activation/dto"
	"github.com/keygate-inc/keygate/internal/application/common"
	commondto "github.com/keygate-inc/keygate/internal/application/common/dto"
	"github.com/keygate-inc/keygate/internal/domain/activation"
	"github.com/keygate-inc/keygate/internal/domain/license"
	"github.com/keygate-inc/keygate/internal/domain/shared/events"
	"github.com/keygate-inc/keygate/internal/shared/biztime"
	"github.com/keygate-inc/keygate/internal/shared/db"
	"github.com/keygate-inc/keygate/internal/shared/logger"
)

// DeactivateUseCase releases the seats an installation holds under a key
type DeactivateUseCase struct {
	resolver       *KeyResolver
	licenseRepo    license.Repository
	activationRepo activation.Repository
	txMgr          *db.TransactionManager
	publisher      events.EventPublisher
	clock          biztime.Clock
	logger         logger.Interface
}

// NewDeactivateUseCase creates a new deactivate use case
func NewDeactivateUseCase(
	resolver *KeyResolver,
	licenseRepo license.Repository,
	activationRepo activation.Repository,
	txMgr *db.TransactionManager,
	publisher events.EventPublisher,
	clock biztime.Clock,
	logger logger.Interface,
) *DeactivateUseCase {
	return &DeactivateUseCase{
		resolver:       resolver,
		licenseRepo:    licenseRepo,
		activationRepo: activationRepo,
		txMgr:          txMgr,
		publisher:      publisher,
		clock:          clock,
		logger:         logger,
	}
}

// Execute deactivates the instance on every license of the key. An instance
// holding no seat is not an error. License status is not checked: freeing
// capacity is always allowed.
//
// Every license row is locked before the first activation read.
func (uc *DeactivateUseCase) Execute(ctx context.Context, cmd dto.DeactivateCommand) (*dto.DeactivateResult, error) {
	identifier, err := normalizeInstance(cmd.InstanceIdentifier)
	if err != nil {
		return nil, err
	}

	key, tc, err := uc.resolver.Resolve(ctx, cmd.LicenseKey)
	if err != nil {
		return nil, err
	}

	listed, err := uc.licenseRepo.ListByKey(ctx, tc.BrandID, key.ID())
	if err != nil {
		return nil, db.MapError(ctx, err)
	}

	result := &dto.DeactivateResult{}
	err = uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		// lock in listing order so concurrent deactivations cannot deadlock
		locked := make([]*license.License, 0, len(listed))
		for _, candidate := range listed {
			l, err := uc.licenseRepo.GetByIDForUpdate(txCtx, tc.BrandID, candidate.ID())
			if err != nil {
				return err
			}
			locked = append(locked, l)
		}

		now := uc.clock.Now()
		result.Licenses = make([]dto.LicenseSeatsDTO, 0, len(locked))
		var evts []events.DomainEvent
		for _, l := range locked {
			used, err := uc.activationRepo.CountActive(txCtx, tc.BrandID, l.ID())
			if err != nil {
				return err
			}

			a, err := uc.activationRepo.GetActive(txCtx, tc.BrandID, l.ID(), identifier)
			if err != nil {
				return err
			}
			if a != nil && a.Deactivate(now) {
				if err := uc.activationRepo.Update(txCtx, a); err != nil {
					return err
				}
				used--
				result.Deactivated++
				usage := activation.SeatUsage{Limit: l.SeatLimit(), Used: used}
				evts = append(evts, activation.NewSeatEvent(activation.EventSeatDeactivated, tc.BrandID, key.ID(), a, usage, now))
			}

			result.Licenses = append(result.Licenses, dto.LicenseSeatsDTO{
				LicenseID: l.ID(),
				ProductID: l.ProductID(),
				SeatsDTO:  commondto.NewSeatsDTO(activation.SeatUsage{Limit: l.SeatLimit(), Used: used}),
			})
		}

		common.PublishAfterCommit(txCtx, uc.publisher, evts...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Deactivated > 0 {
		uc.logger.Infow("seat deactivated",
			"tenant_id", tc.BrandID,
			"license_key_id", key.ID(),
			"released", result.Deactivated,
		)
	}
	return result, nil
}
