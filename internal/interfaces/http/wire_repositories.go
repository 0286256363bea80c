package http

import (
	"gorm.io/gorm"

	"github.com/keygate-inc/keygate/internal/domain/activation"
	"github.com/keygate-inc/keygate/internal/domain/idempotency"
	"github.com/keygate-inc/keygate/internal/domain/license"
	"github.com/keygate-inc/keygate/internal/domain/tenant"
	"github.com/keygate-inc/keygate/internal/infrastructure/repository"
	"github.com/keygate-inc/keygate/internal/shared/logger"
)

// repositories holds all repository instances used by the application.
type repositories struct {
	brandRepo       tenant.BrandRepository
	productRepo     tenant.ProductRepository
	apiKeyRepo      tenant.APIKeyRepository
	keyRepo         license.KeyRepository
	licenseRepo     license.Repository
	activationRepo  activation.Repository
	idempotencyRepo idempotency.Repository
}

func newRepositories(db *gorm.DB, log logger.Interface) *repositories {
	return &repositories{
		brandRepo:       repository.NewBrandRepository(db, log),
		productRepo:     repository.NewProductRepository(db, log),
		apiKeyRepo:      repository.NewAPIKeyRepository(db, log),
		keyRepo:         repository.NewLicenseKeyRepository(db, log),
		licenseRepo:     repository.NewLicenseRepository(db, log),
		activationRepo:  repository.NewActivationRepository(db, log),
		idempotencyRepo: repository.NewIdempotencyRepository(db, log),
	}
}
