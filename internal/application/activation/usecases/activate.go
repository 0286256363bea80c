package usecases

import (
	"context"

	"github.com/keygate-inc/keygate/internal/application/activation/dto"
	"github.com/keygate-inc/keygate/internal/application/common"
	commondto "github.com/keygate-inc/keygate/internal/application/common/dto"
	"github.com/keygate-inc/keygate/internal/domain/activation"
	"github.com/keygate-inc/keygate/internal/domain/license"
	"github.com/keygate-inc/keygate/internal/domain/shared/events"
	"github.com/keygate-inc/keygate/internal/domain/tenant"
	"github.com/keygate-inc/keygate/internal/shared/biztime"
	"github.com/keygate-inc/keygate/internal/shared/db"
	"github.com/keygate-inc/keygate/internal/shared/errors"
	"github.com/keygate-inc/keygate/internal/shared/id"
	"github.com/keygate-inc/keygate/internal/shared/logger"
)

// ActivateUseCase takes a seat on a license for an installation
type ActivateUseCase struct {
	resolver       *KeyResolver
	productRepo    tenant.ProductRepository
	licenseRepo    license.Repository
	activationRepo activation.Repository
	txMgr          *db.TransactionManager
	publisher      events.EventPublisher
	clock          biztime.Clock
	logger         logger.Interface
}

// NewActivateUseCase creates a new activate use case
func NewActivateUseCase(
	resolver *KeyResolver,
	productRepo tenant.ProductRepository,
	licenseRepo license.Repository,
	activationRepo activation.Repository,
	txMgr *db.TransactionManager,
	publisher events.EventPublisher,
	clock biztime.Clock,
	logger logger.Interface,
) *ActivateUseCase {
	return &ActivateUseCase{
		resolver:       resolver,
		productRepo:    productRepo,
		licenseRepo:    licenseRepo,
		activationRepo: activationRepo,
		txMgr:          txMgr,
		publisher:      publisher,
		clock:          clock,
		logger:         logger,
	}
}

// Execute activates the instance. Re-activating an instance that already holds
// a seat returns that seat unchanged.
//
// The license row lock is the first statement of the transaction and is held
// until the insert commits, so the seat count reads a snapshot taken after
// the lock was granted.
func (uc *ActivateUseCase) Execute(ctx context.Context, cmd dto.ActivateCommand) (*dto.ActivateResult, error) {
	identifier, err := normalizeInstance(cmd.InstanceIdentifier)
	if err != nil {
		return nil, err
	}
	instanceType, err := parseInstanceType(cmd.InstanceType)
	if err != nil {
		return nil, err
	}

	key, tc, err := uc.resolver.Resolve(ctx, cmd.LicenseKey)
	if err != nil {
		return nil, err
	}

	target, err := uc.selectLicense(ctx, tc, key, cmd.ProductSlug)
	if err != nil {
		return nil, db.MapError(ctx, err)
	}

	var result *dto.ActivateResult
	err = uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		l, err := uc.licenseRepo.GetByIDForUpdate(txCtx, tc.BrandID, target.ID())
		if err != nil {
			return err
		}
		if err := tc.Guard("license", l.ID(), l.BrandID()); err != nil {
			return err
		}

		now := uc.clock.Now()
		if err := l.AuthorizationError(now); err != nil {
			return err
		}

		used, err := uc.activationRepo.CountActive(txCtx, tc.BrandID, l.ID())
		if err != nil {
			return err
		}
		usage := activation.SeatUsage{Limit: l.SeatLimit(), Used: used}

		existing, err := uc.activationRepo.GetActive(txCtx, tc.BrandID, l.ID(), identifier)
		if err != nil {
			return err
		}
		if existing != nil {
			result = &dto.ActivateResult{
				Activation:    commondto.ToActivationDTO(existing),
				Seats:         commondto.NewSeatsDTO(usage),
				AlreadyActive: true,
			}
			return nil
		}

		if !usage.HasCapacity() {
			return errors.NewSeatLimitExceededError(l.ID(), l.SeatLimit())
		}

		a, err := activation.NewActivation(id.NewUUID(), l.ID(), identifier, instanceType, cmd.Metadata, now)
		if err != nil {
			return errors.NewValidationError(err.Error())
		}
		if err := uc.activationRepo.Create(txCtx, a); err != nil {
			return err
		}
		usage.Used++

		result = &dto.ActivateResult{
			Activation: commondto.ToActivationDTO(a),
			Seats:      commondto.NewSeatsDTO(usage),
		}
		common.PublishAfterCommit(txCtx, uc.publisher,
			activation.NewSeatEvent(activation.EventSeatActivated, tc.BrandID, key.ID(), a, usage, now))
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyActive {
		uc.logger.Infow("seat activated",
			"tenant_id", tc.BrandID,
			"license_id", result.Activation.LicenseID,
			"activation_id", result.Activation.ID,
			"seats_used", result.Seats.SeatsUsed,
		)
	}
	return result, nil
}

// selectLicense picks the license under key that the activation targets. A
// key holding a single license needs no product slug.
func (uc *ActivateUseCase) selectLicense(ctx context.Context, tc tenant.Context, key *license.LicenseKey, productSlug string) (*license.License, error) {
	licenses, err := uc.licenseRepo.ListByKey(ctx, tc.BrandID, key.ID())
	if err != nil {
		return nil, err
	}
	if len(licenses) == 0 {
		return nil, errors.NewNotFoundError("license not found")
	}

	if productSlug == "" {
		if len(licenses) > 1 {
			return nil, errors.NewValidationError("product_slug is required when the key holds several licenses")
		}
		return licenses[0], nil
	}

	product, err := uc.productRepo.GetBySlug(ctx, tc.BrandID, productSlug)
	if err != nil {
		return nil, err
	}
	for _, l := range licenses {
		if l.ProductID() == product.ID() {
			return l, nil
		}
	}
	return nil, errors.NewNotFoundError("license not found")
}
