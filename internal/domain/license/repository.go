package license

import (
	"context"
	"time"
)

// KeyRepository persists license keys
type KeyRepository interface {
	Create(ctx context.Context, k *LicenseKey) error

	// GetByDigest resolves a key across tenants; the key itself names its brand.
	// Returns nil, nil when no key matches.
	GetByDigest(ctx context.Context, digest string) (*LicenseKey, error)

	// GetByID returns a cross-tenant NotFound when the key belongs to another brand.
	GetByID(ctx context.Context, brandID, id string) (*LicenseKey, error)

	// ListByEmail returns the brand's keys for a normalized email, oldest first.
	ListByEmail(ctx context.Context, brandID, email string) ([]*LicenseKey, error)
}

// Repository persists licenses. Every lookup is scoped by brand through the owning key.
type Repository interface {
	Create(ctx context.Context, l *License) error

	// GetByID returns NotFound when missing and a cross-tenant NotFound when
	// the license belongs to another brand.
	GetByID(ctx context.Context, brandID, id string) (*License, error)

	// GetByIDForUpdate is GetByID under a row lock held until the surrounding
	// transaction ends. It serializes seat allocation per license.
	GetByIDForUpdate(ctx context.Context, brandID, id string) (*License, error)

	// ListByKey returns the licenses under a key, oldest first.
	ListByKey(ctx context.Context, brandID, keyID string) ([]*License, error)

	// Update persists a transition. It fails with a conflict when the stored
	// version no longer matches.
	Update(ctx context.Context, l *License) error

	// ListOverdue returns up to limit licenses across all tenants still stored
	// as valid whose expires_at is not after now.
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]*License, error)
}
