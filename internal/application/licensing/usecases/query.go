package usecases

import (
	"context"

	commondto "github.com/keygate-inc/keygate/internal/application/common/dto"
	"github.com/keygate-inc/keygate/internal/application/licensing/dto"
	"github.com/keygate-inc/keygate/internal/domain/activation"
	"github.com/keygate-inc/keygate/internal/domain/license"
	"github.com/keygate-inc/keygate/internal/domain/tenant"
	"github.com/keygate-inc/keygate/internal/shared/biztime"
	"github.com/keygate-inc/keygate/internal/shared/db"
	"github.com/keygate-inc/keygate/internal/shared/errors"
	"github.com/keygate-inc/keygate/internal/shared/logger"
)

// GetLicenseUseCase reads one license with its seat usage
type GetLicenseUseCase struct {
	licenseRepo    license.Repository
	productRepo    tenant.ProductRepository
	activationRepo activation.Repository
	clock          biztime.Clock
	logger         logger.Interface
}

// NewGetLicenseUseCase creates a new get license use case
func NewGetLicenseUseCase(
	licenseRepo license.Repository,
	productRepo tenant.ProductRepository,
	activationRepo activation.Repository,
	clock biztime.Clock,
	logger logger.Interface,
) *GetLicenseUseCase {
	return &GetLicenseUseCase{
		licenseRepo:    licenseRepo,
		productRepo:    productRepo,
		activationRepo: activationRepo,
		clock:          clock,
		logger:         logger,
	}
}

// Execute returns the license or NotFound, including for other tenants' licenses
func (uc *GetLicenseUseCase) Execute(ctx context.Context, q dto.GetLicenseQuery) (*commondto.LicenseDTO, error) {
	if err := requireRead(q.Tenant); err != nil {
		return nil, err
	}
	if q.LicenseID == "" {
		return nil, errors.NewValidationError("license id is required")
	}

	l, err := uc.licenseRepo.GetByID(ctx, q.Tenant.BrandID, q.LicenseID)
	if err != nil {
		return nil, db.MapError(ctx, err)
	}
	if err := q.Tenant.Guard("license", l.ID(), l.BrandID()); err != nil {
		return nil, err
	}

	product, err := uc.productRepo.GetByID(ctx, q.Tenant.BrandID, l.ProductID())
	if err != nil {
		return nil, db.MapError(ctx, err)
	}
	used, err := uc.activationRepo.CountActive(ctx, q.Tenant.BrandID, l.ID())
	if err != nil {
		return nil, db.MapError(ctx, err)
	}

	out := commondto.ToLicenseDTO(l, product, used, uc.clock.Now())
	return &out, nil
}

// ListLicensesByEmailUseCase lists a customer's keys and licenses within a tenant
type ListLicensesByEmailUseCase struct {
	keyRepo        license.KeyRepository
	licenseRepo    license.Repository
	productRepo    tenant.ProductRepository
	activationRepo activation.Repository
	clock          biztime.Clock
	logger         logger.Interface
}

// NewListLicensesByEmailUseCase creates a new list by email use case
func NewListLicensesByEmailUseCase(
	keyRepo license.KeyRepository,
	licenseRepo license.Repository,
	productRepo tenant.ProductRepository,
	activationRepo activation.Repository,
	clock biztime.Clock,
	logger logger.Interface,
) *ListLicensesByEmailUseCase {
	return &ListLicensesByEmailUseCase{
		keyRepo:        keyRepo,
		licenseRepo:    licenseRepo,
		productRepo:    productRepo,
		activationRepo: activationRepo,
		clock:          clock,
		logger:         logger,
	}
}

// Execute lists the keys. An unknown email yields an empty list.
func (uc *ListLicensesByEmailUseCase) Execute(ctx context.Context, q dto.ListByEmailQuery) (*dto.ListByEmailResult, error) {
	if err := requireRead(q.Tenant); err != nil {
		return nil, err
	}
	email, err := license.NormalizeEmail(q.Email)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	brandID := q.Tenant.BrandID

	keys, err := uc.keyRepo.ListByEmail(ctx, brandID, email)
	if err != nil {
		return nil, db.MapError(ctx, err)
	}

	perKey := make([][]*license.License, len(keys))
	var licenseIDs, productIDs []string
	seenProduct := make(map[string]struct{})
	for i, k := range keys {
		list, err := uc.licenseRepo.ListByKey(ctx, brandID, k.ID())
		if err != nil {
			return nil, db.MapError(ctx, err)
		}
		perKey[i] = list
		for _, l := range list {
			licenseIDs = append(licenseIDs, l.ID())
			if _, ok := seenProduct[l.ProductID()]; !ok {
				seenProduct[l.ProductID()] = struct{}{}
				productIDs = append(productIDs, l.ProductID())
			}
		}
	}

	counts, err := uc.activationRepo.CountActiveByLicenses(ctx, brandID, licenseIDs)
	if err != nil {
		return nil, db.MapError(ctx, err)
	}
	products, err := uc.productRepo.GetByIDs(ctx, brandID, productIDs)
	if err != nil {
		return nil, db.MapError(ctx, err)
	}
	productByID := make(map[string]*tenant.Product, len(products))
	for _, p := range products {
		productByID[p.ID()] = p
	}

	now := uc.clock.Now()
	result := &dto.ListByEmailResult{
		CustomerEmail: email,
		LicenseKeys:   make([]dto.LicenseKeyDTO, 0, len(keys)),
	}
	for i, k := range keys {
		kd := dto.LicenseKeyDTO{
			ID:            k.ID(),
			CustomerEmail: k.CustomerEmail(),
			CreatedAt:     k.CreatedAt(),
			Licenses:      make([]commondto.LicenseDTO, 0, len(perKey[i])),
		}
		for _, l := range perKey[i] {
			kd.Licenses = append(kd.Licenses, commondto.ToLicenseDTO(l, productByID[l.ProductID()], counts[l.ID()], now))
		}
		result.LicenseKeys = append(result.LicenseKeys, kd)
	}
	return result, nil
}
