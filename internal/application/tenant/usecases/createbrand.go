package usecases

import (
	"context"
	"strings"
	"time"

	"github.com/keygate-inc/keygate/internal/application/tenant/dto"
	"github.com/keygate-inc/keygate/internal/domain/license"
	"github.com/keygate-inc/keygate/internal/domain/tenant"
	"github.com/keygate-inc/keygate/internal/shared/biztime"
	"github.com/keygate-inc/keygate/internal/shared/db"
	"github.com/keygate-inc/keygate/internal/shared/errors"
	"github.com/keygate-inc/keygate/internal/shared/id"
	"github.com/keygate-inc/keygate/internal/shared/logger"
)

const apiKeySecretLength = 40

// CreateBrandUseCase bootstraps a tenant
type CreateBrandUseCase struct {
	brandRepo   tenant.BrandRepository
	productRepo tenant.ProductRepository
	apiKeyRepo  tenant.APIKeyRepository
	hasher      *license.KeyGenerator
	txMgr       *db.TransactionManager
	clock       biztime.Clock
	logger      logger.Interface
}

// NewCreateBrandUseCase creates a new brand bootstrap use case
func NewCreateBrandUseCase(
	brandRepo tenant.BrandRepository,
	productRepo tenant.ProductRepository,
	apiKeyRepo tenant.APIKeyRepository,
	hasher *license.KeyGenerator,
	txMgr *db.TransactionManager,
	clock biztime.Clock,
	logger logger.Interface,
) *CreateBrandUseCase {
	return &CreateBrandUseCase{
		brandRepo:   brandRepo,
		productRepo: productRepo,
		apiKeyRepo:  apiKeyRepo,
		hasher:      hasher,
		txMgr:       txMgr,
		clock:       clock,
		logger:      logger,
	}
}

// Execute creates the brand, its products and one API key in a single transaction
func (uc *CreateBrandUseCase) Execute(ctx context.Context, cmd dto.CreateBrandCommand) (*dto.CreateBrandResult, error) {
	now := uc.clock.Now()
	brand, err := tenant.NewBrand(id.NewUUID(), cmd.Name, cmd.Slug, cmd.KeyPrefix, now)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	products := make([]*tenant.Product, 0, len(cmd.Products))
	for _, spec := range cmd.Products {
		name := spec.Name
		if name == "" {
			name = spec.Slug
		}
		p, err := tenant.NewProduct(id.NewUUID(), brand.ID(), name, spec.Slug, now)
		if err != nil {
			return nil, errors.NewValidationError(err.Error())
		}
		products = append(products, p)
	}

	result := &dto.CreateBrandResult{
		ID:        brand.ID(),
		Name:      brand.Name(),
		Slug:      brand.Slug(),
		KeyPrefix: brand.KeyPrefix(),
		Products:  make([]dto.ProductResult, 0, len(products)),
	}
	err = uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.brandRepo.Create(txCtx, brand); err != nil {
			return err
		}
		for _, p := range products {
			if err := uc.productRepo.Create(txCtx, p); err != nil {
				return err
			}
			result.Products = append(result.Products, dto.ProductResult{ID: p.ID(), Slug: p.Slug(), Name: p.Name()})
		}
		key, err := issueAPIKey(txCtx, uc.apiKeyRepo, uc.hasher, brand.ID(), cmd.APIKeyName, cmd.Scope, cmd.ExpiresAt, now)
		if err != nil {
			return err
		}
		result.APIKey = *key
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("brand created",
		"tenant_id", brand.ID(),
		"slug", brand.Slug(),
		"products", len(result.Products),
	)
	return result, nil
}

// CreateAPIKeyUseCase issues an additional API key for a brand
type CreateAPIKeyUseCase struct {
	brandRepo  tenant.BrandRepository
	apiKeyRepo tenant.APIKeyRepository
	hasher     *license.KeyGenerator
	clock      biztime.Clock
	logger     logger.Interface
}

// NewCreateAPIKeyUseCase creates a new API key use case
func NewCreateAPIKeyUseCase(
	brandRepo tenant.BrandRepository,
	apiKeyRepo tenant.APIKeyRepository,
	hasher *license.KeyGenerator,
	clock biztime.Clock,
	logger logger.Interface,
) *CreateAPIKeyUseCase {
	return &CreateAPIKeyUseCase{
		brandRepo:  brandRepo,
		apiKeyRepo: apiKeyRepo,
		hasher:     hasher,
		clock:      clock,
		logger:     logger,
	}
}

// Execute issues the key
func (uc *CreateAPIKeyUseCase) Execute(ctx context.Context, cmd dto.CreateAPIKeyCommand) (*dto.APIKeyResult, error) {
	brand, err := uc.brandRepo.GetBySlug(ctx, cmd.BrandSlug)
	if err != nil {
		return nil, db.MapError(ctx, err)
	}
	key, err := issueAPIKey(ctx, uc.apiKeyRepo, uc.hasher, brand.ID(), cmd.Name, cmd.Scope, cmd.ExpiresAt, uc.clock.Now())
	if err != nil {
		return nil, db.MapError(ctx, err)
	}
	uc.logger.Infow("api key created", "tenant_id", brand.ID(), "api_key_id", key.ID, "scope", key.Scope)
	return key, nil
}

func issueAPIKey(
	ctx context.Context,
	repo tenant.APIKeyRepository,
	hasher *license.KeyGenerator,
	brandID, name, scope string,
	expiresAt *time.Time,
	now time.Time,
) (*dto.APIKeyResult, error) {
	if name == "" {
		name = "default"
	}
	sc := tenant.Scope(strings.ToLower(scope))
	if scope == "" {
		sc = tenant.ScopeFull
	}
	if !sc.IsValid() {
		return nil, errors.NewValidationError("scope must be full or read")
	}

	plaintext, err := id.GenerateWithPrefix(id.PrefixAPIKey, apiKeySecretLength)
	if err != nil {
		return nil, err
	}
	k, err := tenant.NewAPIKey(id.NewUUID(), brandID, name, hasher.Sum(plaintext), sc, biztime.ToUTC(expiresAt), now)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if err := repo.Create(ctx, k); err != nil {
		return nil, err
	}
	return &dto.APIKeyResult{
		ID:        k.ID(),
		Name:      k.Name(),
		Key:       plaintext,
		Scope:     k.Scope().String(),
		ExpiresAt: k.ExpiresAt(),
	}, nil
}
