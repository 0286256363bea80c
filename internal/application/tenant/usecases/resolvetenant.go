package usecases

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/keygate-inc/keygate/internal/domain/license"
	"github.com/keygate-inc/keygate/internal/domain/tenant"
	"github.com/keygate-inc/keygate/internal/shared/biztime"
	"github.com/keygate-inc/keygate/internal/shared/db"
	"github.com/keygate-inc/keygate/internal/shared/errors"
	"github.com/keygate-inc/keygate/internal/shared/goroutine"
	"github.com/keygate-inc/keygate/internal/shared/logger"
)

const (
	apiKeyCacheSize = 1024
	apiKeyCacheTTL  = 30 * time.Second
	touchTimeout    = 5 * time.Second
)

// ResolveTenantUseCase maps a plaintext API key to the calling brand.
// Resolved keys are cached briefly; usability is still checked on every call.
type ResolveTenantUseCase struct {
	apiKeyRepo tenant.APIKeyRepository
	hasher     *license.KeyGenerator
	cache      *expirable.LRU[string, *tenant.APIKey]
	clock      biztime.Clock
	logger     logger.Interface
}

// NewResolveTenantUseCase creates a new resolver
func NewResolveTenantUseCase(
	apiKeyRepo tenant.APIKeyRepository,
	hasher *license.KeyGenerator,
	clock biztime.Clock,
	logger logger.Interface,
) *ResolveTenantUseCase {
	return &ResolveTenantUseCase{
		apiKeyRepo: apiKeyRepo,
		hasher:     hasher,
		cache:      expirable.NewLRU[string, *tenant.APIKey](apiKeyCacheSize, nil, apiKeyCacheTTL),
		clock:      clock,
		logger:     logger,
	}
}

// Execute returns Unauthorized for unknown, revoked or expired keys
func (uc *ResolveTenantUseCase) Execute(ctx context.Context, plaintext string) (tenant.Context, error) {
	if plaintext == "" {
		return tenant.Context{}, errors.NewUnauthorizedError("api key is required")
	}
	digest := uc.hasher.Sum(plaintext)

	key, ok := uc.cache.Get(digest)
	if !ok {
		var err error
		key, err = uc.apiKeyRepo.GetByDigest(ctx, digest)
		if err != nil {
			return tenant.Context{}, db.MapError(ctx, err)
		}
		if key == nil {
			return tenant.Context{}, errors.NewUnauthorizedError("invalid api key")
		}
		uc.cache.Add(digest, key)
		uc.touch(key.ID())
	}

	if !key.IsUsable(uc.clock.Now()) {
		return tenant.Context{}, errors.NewUnauthorizedError("api key is revoked or expired")
	}
	return tenant.NewContext(key.BrandID(), key.Scope()), nil
}

// touch records use off the request path, at most once per cache lifetime.
func (uc *ResolveTenantUseCase) touch(keyID string) {
	goroutine.SafeGo(uc.logger, "touch-api-key", func() {
		ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
		defer cancel()
		if err := uc.apiKeyRepo.TouchLastUsed(ctx, keyID); err != nil {
			uc.logger.Warnw("failed to record api key use", "api_key_id", keyID, "error", err)
		}
	})
}
