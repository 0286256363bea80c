package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/keygate-inc/keygate/internal/domain/tenant"
	"github.com/keygate-inc/keygate/internal/infrastructure/persistence/mappers"
	"github.com/keygate-inc/keygate/internal/infrastructure/persistence/models"
	"github.com/keygate-inc/keygate/internal/shared/biztime"
	"github.com/keygate-inc/keygate/internal/shared/db"
	"github.com/keygate-inc/keygate/internal/shared/errors"
	"github.com/keygate-inc/keygate/internal/shared/logger"
)

// BrandRepositoryImpl implements tenant.BrandRepository
type BrandRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.TenantMapper
	logger logger.Interface
}

// NewBrandRepository creates a new brand repository instance
func NewBrandRepository(db *gorm.DB, logger logger.Interface) tenant.BrandRepository {
	return &BrandRepositoryImpl{
		db:     db,
		mapper: mappers.NewTenantMapper(),
		logger: logger,
	}
}

func (r *BrandRepositoryImpl) Create(ctx context.Context, b *tenant.Brand) error {
	model := r.mapper.BrandToModel(b)
	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("brand slug or key prefix already exists")
		}
		r.logger.Errorw("failed to create brand", "slug", b.Slug(), "error", err)
		return fmt.Errorf("failed to create brand: %w", err)
	}
	return nil
}

func (r *BrandRepositoryImpl) GetByID(ctx context.Context, id string) (*tenant.Brand, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *BrandRepositoryImpl) GetBySlug(ctx context.Context, slug string) (*tenant.Brand, error) {
	return r.first(ctx, "slug = ?", slug)
}

func (r *BrandRepositoryImpl) first(ctx context.Context, query string, arg string) (*tenant.Brand, error) {
	var model models.BrandModel
	if err := db.GetTxFromContext(ctx, r.db).Where(query, arg).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("brand not found")
		}
		return nil, fmt.Errorf("failed to get brand: %w", err)
	}
	return r.mapper.BrandToDomain(&model)
}

// ProductRepositoryImpl implements tenant.ProductRepository
type ProductRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.TenantMapper
	logger logger.Interface
}

// NewProductRepository creates a new product repository instance
func NewProductRepository(db *gorm.DB, logger logger.Interface) tenant.ProductRepository {
	return &ProductRepositoryImpl{
		db:     db,
		mapper: mappers.NewTenantMapper(),
		logger: logger,
	}
}

func (r *ProductRepositoryImpl) Create(ctx context.Context, p *tenant.Product) error {
	if err := db.GetTxFromContext(ctx, r.db).Create(r.mapper.ProductToModel(p)).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("product slug already exists")
		}
		r.logger.Errorw("failed to create product", "brand_id", p.BrandID(), "slug", p.Slug(), "error", err)
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *ProductRepositoryImpl) GetByID(ctx context.Context, brandID, id string) (*tenant.Product, error) {
	tx := db.GetTxFromContext(ctx, r.db)
	var model models.ProductModel
	err := tx.Where("brand_id = ? AND id = ?", brandID, id).First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return nil, notFoundOrForeign(tx, &models.ProductModel{}, "product", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return r.mapper.ProductToDomain(&model), nil
}

func (r *ProductRepositoryImpl) GetBySlug(ctx context.Context, brandID, slug string) (*tenant.Product, error) {
	var model models.ProductModel
	err := db.GetTxFromContext(ctx, r.db).Where("brand_id = ? AND slug = ?", brandID, slug).First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.NewNotFoundError("product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product by slug: %w", err)
	}
	return r.mapper.ProductToDomain(&model), nil
}

func (r *ProductRepositoryImpl) GetByIDs(ctx context.Context, brandID string, ids []string) ([]*tenant.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	tx := db.GetTxFromContext(ctx, r.db)

	var list []models.ProductModel
	if err := tx.Where("brand_id = ? AND id IN ?", brandID, ids).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	byID := make(map[string]*models.ProductModel, len(list))
	for i := range list {
		byID[list[i].ID] = &list[i]
	}

	products := make([]*tenant.Product, 0, len(ids))
	for _, id := range ids {
		model, ok := byID[id]
		if !ok {
			return nil, notFoundOrForeign(tx, &models.ProductModel{}, "product", id)
		}
		products = append(products, r.mapper.ProductToDomain(model))
	}
	return products, nil
}

// APIKeyRepositoryImpl implements tenant.APIKeyRepository
type APIKeyRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.TenantMapper
	logger logger.Interface
}

// NewAPIKeyRepository creates a new API key repository instance
func NewAPIKeyRepository(db *gorm.DB, logger logger.Interface) tenant.APIKeyRepository {
	return &APIKeyRepositoryImpl{
		db:     db,
		mapper: mappers.NewTenantMapper(),
		logger: logger,
	}
}

func (r *APIKeyRepositoryImpl) Create(ctx context.Context, k *tenant.APIKey) error {
	if err := db.GetTxFromContext(ctx, r.db).Create(r.mapper.APIKeyToModel(k)).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("api key already exists")
		}
		r.logger.Errorw("failed to create api key", "brand_id", k.BrandID(), "error", err)
		return fmt.Errorf("failed to create api key: %w", err)
	}
	return nil
}

func (r *APIKeyRepositoryImpl) GetByDigest(ctx context.Context, digest string) (*tenant.APIKey, error) {
	var model models.APIKeyModel
	err := db.GetTxFromContext(ctx, r.db).Where("digest = ?", digest).First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get api key: %w", err)
	}
	return r.mapper.APIKeyToDomain(&model), nil
}

func (r *APIKeyRepositoryImpl) TouchLastUsed(ctx context.Context, id string) error {
	err := db.GetTxFromContext(ctx, r.db).
		Model(&models.APIKeyModel{}).
		Where("id = ?", id).
		Update("last_used_at", biztime.NowUTC()).Error
	if err != nil {
		return fmt.Errorf("failed to touch api key: %w", err)
	}
	return nil
}
