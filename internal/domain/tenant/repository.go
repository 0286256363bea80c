package tenant

import "context"

// BrandRepository persists brands
type BrandRepository interface {
	Create(ctx context.Context, b *Brand) error
	GetByID(ctx context.Context, id string) (*Brand, error)
	GetBySlug(ctx context.Context, slug string) (*Brand, error)
}

// ProductRepository persists products. Reads are scoped by brand.
type ProductRepository interface {
	Create(ctx context.Context, p *Product) error

	// GetByID returns NotFound when the product is missing and a cross-tenant
	// NotFound when it belongs to another brand.
	GetByID(ctx context.Context, brandID, id string) (*Product, error)

	// GetBySlug looks a product up by slug within a brand.
	GetBySlug(ctx context.Context, brandID, slug string) (*Product, error)

	// GetByIDs resolves every id or fails on the first that does not belong to brandID.
	GetByIDs(ctx context.Context, brandID string, ids []string) ([]*Product, error)
}

// APIKeyRepository persists API key digests
type APIKeyRepository interface {
	Create(ctx context.Context, k *APIKey) error

	// GetByDigest returns nil, nil when no key matches.
	GetByDigest(ctx context.Context, digest string) (*APIKey, error)

	TouchLastUsed(ctx context.Context, id string) error
}
