package handlers

import (
	"context"

	commondto "github.com/keygate-inc/keygate/internal/application/common/dto"
	"github.com/keygate-inc/keygate/internal/application/idempotency"
	"github.com/keygate-inc/keygate/internal/application/licensing/dto"
)

// Use case interfaces for LicenseHandler

type provisionLicenseUseCase interface {
	Execute(ctx context.Context, cmd dto.ProvisionCommand) (*dto.ProvisionResult, error)
}

type renewLicenseUseCase interface {
	Execute(ctx context.Context, cmd dto.RenewCommand) (*commondto.LicenseDTO, error)
}

type transitionLicenseUseCase interface {
	Execute(ctx context.Context, cmd dto.TransitionCommand) (*commondto.LicenseDTO, error)
}

type getLicenseUseCase interface {
	Execute(ctx context.Context, q dto.GetLicenseQuery) (*commondto.LicenseDTO, error)
}

type listLicensesByEmailUseCase interface {
	Execute(ctx context.Context, q dto.ListByEmailQuery) (*dto.ListByEmailResult, error)
}

type idempotencyLedger interface {
	Execute(ctx context.Context, tenantID, token string, cmd idempotency.Command) (*idempotency.Response, error)
}
