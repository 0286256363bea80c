package usecases

import (
	"context"

	"github.com/keygate-inc/keygate/internal/application/common"
	commondto "github.com/keygate-inc/keygate/internal/application/common/dto"
	"github.com/keygate-inc/keygate/internal/application/licensing/dto"
	"github.com/keygate-inc/keygate/internal/domain/license"
	"github.com/keygate-inc/keygate/internal/domain/shared/events"
	"github.com/keygate-inc/keygate/internal/domain/tenant"
	"github.com/keygate-inc/keygate/internal/shared/biztime"
	"github.com/keygate-inc/keygate/internal/shared/db"
	"github.com/keygate-inc/keygate/internal/shared/errors"
	"github.com/keygate-inc/keygate/internal/shared/id"
	"github.com/keygate-inc/keygate/internal/shared/logger"
)

// ProvisionLicenseUseCase issues a license key with one license per product
type ProvisionLicenseUseCase struct {
	brandRepo   tenant.BrandRepository
	productRepo tenant.ProductRepository
	keyRepo     license.KeyRepository
	licenseRepo license.Repository
	keygen      *license.KeyGenerator
	txMgr       *db.TransactionManager
	publisher   events.EventPublisher
	clock       biztime.Clock
	logger      logger.Interface
}

// NewProvisionLicenseUseCase creates a new provision use case
func NewProvisionLicenseUseCase(
	brandRepo tenant.BrandRepository,
	productRepo tenant.ProductRepository,
	keyRepo license.KeyRepository,
	licenseRepo license.Repository,
	keygen *license.KeyGenerator,
	txMgr *db.TransactionManager,
	publisher events.EventPublisher,
	clock biztime.Clock,
	logger logger.Interface,
) *ProvisionLicenseUseCase {
	return &ProvisionLicenseUseCase{
		brandRepo:   brandRepo,
		productRepo: productRepo,
		keyRepo:     keyRepo,
		licenseRepo: licenseRepo,
		keygen:      keygen,
		txMgr:       txMgr,
		publisher:   publisher,
		clock:       clock,
		logger:      logger,
	}
}

// Execute provisions the key and its licenses in one transaction
func (uc *ProvisionLicenseUseCase) Execute(ctx context.Context, cmd dto.ProvisionCommand) (*dto.ProvisionResult, error) {
	if err := requireWrite(cmd.Tenant); err != nil {
		return nil, err
	}

	email, err := license.NormalizeEmail(cmd.CustomerEmail)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if cmd.SeatLimit < 1 {
		return nil, errors.NewValidationError("seat_limit must be at least 1")
	}
	productIDs := dedupe(cmd.ProductIDs)
	if len(productIDs) == 0 {
		return nil, errors.NewValidationError("at least one product id is required")
	}

	now := uc.clock.Now()
	expiresAt := biztime.ToUTC(cmd.ExpiresAt)
	if expiresAt != nil && !expiresAt.After(now) {
		return nil, errors.NewValidationError("expires_at must be in the future")
	}

	brandID := cmd.Tenant.BrandID
	var result *dto.ProvisionResult
	err = uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		brand, err := uc.brandRepo.GetByID(txCtx, brandID)
		if err != nil {
			return err
		}

		for _, pid := range productIDs {
			if _, err := uc.productRepo.GetByID(txCtx, brandID, pid); err != nil {
				if errors.IsNotFoundError(err) {
					return errors.NewUnknownReferenceError("product id", pid, errors.IsCrossTenantError(err))
				}
				return err
			}
		}

		plaintext, digest, err := uc.keygen.Generate(brand.KeyPrefix())
		if err != nil {
			return err
		}
		key, err := license.NewLicenseKey(id.NewUUID(), brandID, digest, email, now)
		if err != nil {
			return err
		}
		if err := uc.keyRepo.Create(txCtx, key); err != nil {
			return err
		}

		evts := []events.DomainEvent{license.NewLicenseKeyCreatedEvent(key, now)}
		result = &dto.ProvisionResult{
			LicenseKey:    plaintext,
			LicenseKeyID:  key.ID(),
			CustomerEmail: key.CustomerEmail(),
			Licenses:      make([]commondto.LicenseDTO, 0, len(productIDs)),
		}
		for _, pid := range productIDs {
			l, err := license.NewLicense(id.NewUUID(), key.ID(), brandID, pid, cmd.SeatLimit, expiresAt, now)
			if err != nil {
				return err
			}
			if err := uc.licenseRepo.Create(txCtx, l); err != nil {
				return err
			}
			evts = append(evts, license.NewLicenseProvisionedEvent(l, now))
			result.Licenses = append(result.Licenses, commondto.ToLicenseDTO(l, nil, 0, now))
		}

		common.PublishAfterCommit(txCtx, uc.publisher, evts...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("license key provisioned",
		"tenant_id", brandID,
		"license_key_id", result.LicenseKeyID,
		"licenses", len(result.Licenses),
	)
	return result, nil
}

// dedupe drops blanks and repeats, keeping first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func requireWrite(tc tenant.Context) error {
	if err := tc.Validate(); err != nil {
		return err
	}
	if !tc.CanWrite() {
		return errors.NewForbiddenError("api key scope does not allow writes")
	}
	return nil
}

func requireRead(tc tenant.Context) error {
	return tc.Validate()
}
