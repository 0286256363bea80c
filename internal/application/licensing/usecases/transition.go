package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/keygate-inc/keygate/internal/application/common"
	commondto "github.com/keygate-inc/keygate/internal/application/common/dto"
	"github.com/keygate-inc/keygate/internal/application/licensing/dto"
	"github.com/keygate-inc/keygate/internal/domain/activation"
	"github.com/keygate-inc/keygate/internal/domain/license"
	"github.com/keygate-inc/keygate/internal/domain/shared/events"
	"github.com/keygate-inc/keygate/internal/domain/tenant"
	"github.com/keygate-inc/keygate/internal/shared/biztime"
	"github.com/keygate-inc/keygate/internal/shared/db"
	"github.com/keygate-inc/keygate/internal/shared/errors"
	"github.com/keygate-inc/keygate/internal/shared/logger"
)

// transitioner runs one lifecycle action against a locked license and
// publishes the resulting event after commit.
type transitioner struct {
	licenseRepo    license.Repository
	activationRepo activation.Repository
	txMgr          *db.TransactionManager
	publisher      events.EventPublisher
	clock          biztime.Clock
}

func (t *transitioner) run(
	ctx context.Context,
	tc tenant.Context,
	licenseID string,
	action license.Action,
	mutate func(l *license.License, now time.Time) error,
) (*commondto.LicenseDTO, license.Status, error) {
	if err := requireWrite(tc); err != nil {
		return nil, "", err
	}
	if licenseID == "" {
		return nil, "", errors.NewValidationError("license id is required")
	}

	now := t.clock.Now()
	var (
		out  commondto.LicenseDTO
		from license.Status
	)
	err := t.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		l, err := t.licenseRepo.GetByIDForUpdate(txCtx, tc.BrandID, licenseID)
		if err != nil {
			return err
		}
		if err := tc.Guard("license", l.ID(), l.BrandID()); err != nil {
			return err
		}

		from = l.Status()
		if err := mutate(l, now); err != nil {
			return err
		}
		if err := t.licenseRepo.Update(txCtx, l); err != nil {
			return err
		}

		used, err := t.activationRepo.CountActive(txCtx, tc.BrandID, l.ID())
		if err != nil {
			return err
		}
		out = commondto.ToLicenseDTO(l, nil, used, now)

		common.PublishAfterCommit(txCtx, t.publisher, license.NewStatusChangedEvent(action, from, l, now))
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return &out, from, nil
}

// RenewLicenseUseCase extends a license's expiry and revives an expired one
type RenewLicenseUseCase struct {
	t      *transitioner
	logger logger.Interface
}

// NewRenewLicenseUseCase creates a new renew use case
func NewRenewLicenseUseCase(
	licenseRepo license.Repository,
	activationRepo activation.Repository,
	txMgr *db.TransactionManager,
	publisher events.EventPublisher,
	clock biztime.Clock,
	logger logger.Interface,
) *RenewLicenseUseCase {
	return &RenewLicenseUseCase{
		t: &transitioner{
			licenseRepo:    licenseRepo,
			activationRepo: activationRepo,
			txMgr:          txMgr,
			publisher:      publisher,
			clock:          clock,
		},
		logger: logger,
	}
}

// Execute renews the license
func (uc *RenewLicenseUseCase) Execute(ctx context.Context, cmd dto.RenewCommand) (*commondto.LicenseDTO, error) {
	if cmd.ExpiresAt.IsZero() {
		return nil, errors.NewValidationError("expires_at is required")
	}
	newExpiry := *biztime.ToUTC(&cmd.ExpiresAt)

	out, from, err := uc.t.run(ctx, cmd.Tenant, cmd.LicenseID, license.ActionRenew,
		func(l *license.License, now time.Time) error {
			return l.Renew(newExpiry, now)
		})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("license renewed",
		"tenant_id", cmd.Tenant.BrandID,
		"license_id", out.ID,
		"from", from,
		"expires_at", newExpiry,
	)
	return out, nil
}

// TransitionLicenseUseCase applies suspend, resume or cancel
type TransitionLicenseUseCase struct {
	t      *transitioner
	logger logger.Interface
}

// NewTransitionLicenseUseCase creates a new transition use case
func NewTransitionLicenseUseCase(
	licenseRepo license.Repository,
	activationRepo activation.Repository,
	txMgr *db.TransactionManager,
	publisher events.EventPublisher,
	clock biztime.Clock,
	logger logger.Interface,
) *TransitionLicenseUseCase {
	return &TransitionLicenseUseCase{
		t: &transitioner{
			licenseRepo:    licenseRepo,
			activationRepo: activationRepo,
			txMgr:          txMgr,
			publisher:      publisher,
			clock:          clock,
		},
		logger: logger,
	}
}

// Execute applies cmd.Action to the license
func (uc *TransitionLicenseUseCase) Execute(ctx context.Context, cmd dto.TransitionCommand) (*commondto.LicenseDTO, error) {
	switch cmd.Action {
	case license.ActionSuspend, license.ActionResume, license.ActionCancel:
	default:
		return nil, errors.NewValidationError(fmt.Sprintf("unsupported action %q", cmd.Action))
	}

	out, from, err := uc.t.run(ctx, cmd.Tenant, cmd.LicenseID, cmd.Action,
		func(l *license.License, now time.Time) error {
			return l.Apply(cmd.Action, now)
		})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("license transitioned",
		"tenant_id", cmd.Tenant.BrandID,
		"license_id", out.ID,
		"action", cmd.Action,
		"from", from,
		"to", out.StoredStatus,
	)
	return out, nil
}
