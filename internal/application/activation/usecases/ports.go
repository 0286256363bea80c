package usecases

import (
	"context"
	"time"

	"github.com/keygate-inc/keygate/internal/application/activation/dto"
)

// StatusCache stores key status snapshots by license key id. Every
// invalidation advances a per-key generation; a snapshot loaded under an older
// generation is never stored.
type StatusCache interface {
	// Get returns nil, nil on a miss.
	Get(ctx context.Context, keyID string) (*dto.KeyStatusSnapshot, error)
	// Generation must be read before the snapshot is loaded.
	Generation(ctx context.Context, keyID string) (int64, error)
	// SetIfGeneration reports whether the snapshot was stored.
	SetIfGeneration(ctx context.Context, keyID string, gen int64, snapshot *dto.KeyStatusSnapshot) (bool, error)
	Invalidate(ctx context.Context, keyID string) error
}

// AttestationClaims is what a signed Check result asserts.
type AttestationClaims struct {
	LicenseKeyID       string
	InstanceIdentifier string
	Authorized         bool
	IssuedAt           time.Time
}

// AttestationSigner signs Check results for offline verification by the product.
type AttestationSigner interface {
	Sign(claims AttestationClaims) (string, error)
}

type nopStatusCache struct{}

func (nopStatusCache) Get(context.Context, string) (*dto.KeyStatusSnapshot, error) {
	return nil, nil
}

func (nopStatusCache) Generation(context.Context, string) (int64, error) {
	return 0, nil
}

func (nopStatusCache) SetIfGeneration(context.Context, string, int64, *dto.KeyStatusSnapshot) (bool, error) {
	return false, nil
}

func (nopStatusCache) Invalidate(context.Context, string) error {
	return nil
}

// NopStatusCache disables status caching.
func NopStatusCache() StatusCache { return nopStatusCache{} }
