package usecases

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/keygate-inc/keygate/internal/application/activation/dto"
	commondto "github.com/keygate-inc/keygate/internal/application/common/dto"
	"github.com/keygate-inc/keygate/internal/domain/activation"
	"github.com/keygate-inc/keygate/internal/domain/license"
	"github.com/keygate-inc/keygate/internal/domain/tenant"
	"github.com/keygate-inc/keygate/internal/shared/biztime"
	"github.com/keygate-inc/keygate/internal/shared/db"
	"github.com/keygate-inc/keygate/internal/shared/logger"
)

// snapshotLoadTimeout bounds a shared load when the caller set no deadline.
const snapshotLoadTimeout = 5 * time.Second

// CheckUseCase reports whether a key currently authorizes use and how its
// seats are consumed.
type CheckUseCase struct {
	resolver       *KeyResolver
	productRepo    tenant.ProductRepository
	licenseRepo    license.Repository
	activationRepo activation.Repository
	cache          StatusCache
	signer         AttestationSigner
	clock          biztime.Clock
	logger         logger.Interface

	loads singleflight.Group
}

// NewCheckUseCase creates a new check use case. cache and signer may be nil.
func NewCheckUseCase(
	resolver *KeyResolver,
	productRepo tenant.ProductRepository,
	licenseRepo license.Repository,
	activationRepo activation.Repository,
	cache StatusCache,
	signer AttestationSigner,
	clock biztime.Clock,
	logger logger.Interface,
) *CheckUseCase {
	if cache == nil {
		cache = NopStatusCache()
	}
	return &CheckUseCase{
		resolver:       resolver,
		productRepo:    productRepo,
		licenseRepo:    licenseRepo,
		activationRepo: activationRepo,
		cache:          cache,
		signer:         signer,
		clock:          clock,
		logger:         logger,
	}
}

// Execute checks the key. The license snapshot may come from cache, but
// authorization is always recomputed against the clock.
func (uc *CheckUseCase) Execute(ctx context.Context, cmd dto.CheckCommand) (*dto.CheckResult, error) {
	var (
		identifier string
		err        error
	)
	if cmd.InstanceIdentifier != "" {
		if identifier, err = normalizeInstance(cmd.InstanceIdentifier); err != nil {
			return nil, err
		}
	}

	key, tc, err := uc.resolver.Resolve(ctx, cmd.LicenseKey)
	if err != nil {
		return nil, err
	}

	snapshot, err := uc.snapshot(ctx, tc, key)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	result := &dto.CheckResult{
		LicenseKeyID:       key.ID(),
		InstanceIdentifier: identifier,
		Licenses:           make([]dto.LicenseStatusDTO, 0, len(snapshot.Licenses)),
		CheckedAt:          now,
	}
	for _, ls := range snapshot.Licenses {
		status := license.EffectiveStatusAt(license.Status(ls.Status), ls.ExpiresAt, now)
		item := dto.LicenseStatusDTO{
			LicenseID:   ls.LicenseID,
			ProductID:   ls.ProductID,
			ProductSlug: ls.ProductSlug,
			ProductName: ls.ProductName,
			Status:      status.String(),
			Authorized:  status == license.StatusValid,
			ExpiresAt:   ls.ExpiresAt,
			SeatsDTO:    commondto.NewSeatsDTO(activation.SeatUsage{Limit: ls.SeatLimit, Used: ls.SeatsUsed}),
		}

		if identifier != "" {
			active, err := uc.touchInstance(ctx, tc, ls.LicenseID, identifier, now)
			if err != nil {
				return nil, err
			}
			item.InstanceActive = active
		}

		result.Valid = result.Valid || item.Authorized
		result.Licenses = append(result.Licenses, item)
	}

	if uc.signer != nil {
		token, err := uc.signer.Sign(AttestationClaims{
			LicenseKeyID:       key.ID(),
			InstanceIdentifier: identifier,
			Authorized:         result.Valid,
			IssuedAt:           now,
		})
		if err != nil {
			return nil, err
		}
		result.Attestation = token
	}
	return result, nil
}

// snapshot reads through the cache. Concurrent misses for one key share a
// single load, which runs detached from the first caller's cancellation.
func (uc *CheckUseCase) snapshot(ctx context.Context, tc tenant.Context, key *license.LicenseKey) (*dto.KeyStatusSnapshot, error) {
	cached, err := uc.cache.Get(ctx, key.ID())
	if err != nil {
		uc.logger.Warnw("status cache read failed", "license_key_id", key.ID(), "error", err)
	}
	if cached != nil {
		return cached, nil
	}

	v, err, _ := uc.loads.Do(key.ID(), func() (interface{}, error) {
		loadCtx, cancel := detach(ctx)
		defer cancel()

		// read before loading: an invalidation during the load moves it
		gen, genErr := uc.cache.Generation(loadCtx, key.ID())
		if genErr != nil {
			uc.logger.Warnw("status cache generation read failed", "license_key_id", key.ID(), "error", genErr)
		}

		s, err := uc.load(loadCtx, tc, key)
		if err != nil {
			return nil, err
		}
		if genErr == nil {
			if _, err := uc.cache.SetIfGeneration(loadCtx, key.ID(), gen, s); err != nil {
				uc.logger.Warnw("status cache write failed", "license_key_id", key.ID(), "error", err)
			}
		}
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*dto.KeyStatusSnapshot), nil
}

// detach keeps ctx's values and deadline but drops its cancellation.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(base, deadline)
	}
	return context.WithTimeout(base, snapshotLoadTimeout)
}

func (uc *CheckUseCase) load(ctx context.Context, tc tenant.Context, key *license.LicenseKey) (*dto.KeyStatusSnapshot, error) {
	licenses, err := uc.licenseRepo.ListByKey(ctx, tc.BrandID, key.ID())
	if err != nil {
		return nil, db.MapError(ctx, err)
	}

	ids := make([]string, 0, len(licenses))
	productIDs := make([]string, 0, len(licenses))
	seen := make(map[string]struct{}, len(licenses))
	for _, l := range licenses {
		ids = append(ids, l.ID())
		if _, ok := seen[l.ProductID()]; !ok {
			seen[l.ProductID()] = struct{}{}
			productIDs = append(productIDs, l.ProductID())
		}
	}

	counts, err := uc.activationRepo.CountActiveByLicenses(ctx, tc.BrandID, ids)
	if err != nil {
		return nil, db.MapError(ctx, err)
	}
	products, err := uc.productRepo.GetByIDs(ctx, tc.BrandID, productIDs)
	if err != nil {
		return nil, db.MapError(ctx, err)
	}
	byID := make(map[string]*tenant.Product, len(products))
	for _, p := range products {
		byID[p.ID()] = p
	}

	s := &dto.KeyStatusSnapshot{
		LicenseKeyID: key.ID(),
		BrandID:      tc.BrandID,
		Licenses:     make([]dto.LicenseSnapshot, 0, len(licenses)),
		LoadedAt:     uc.clock.Now(),
	}
	for _, l := range licenses {
		ls := dto.LicenseSnapshot{
			LicenseID: l.ID(),
			ProductID: l.ProductID(),
			Status:    l.Status().String(),
			ExpiresAt: l.ExpiresAt(),
			SeatLimit: l.SeatLimit(),
			SeatsUsed: counts[l.ID()],
		}
		if p := byID[l.ProductID()]; p != nil {
			ls.ProductSlug = p.Slug()
			ls.ProductName = p.Name()
		}
		s.Licenses = append(s.Licenses, ls)
	}
	return s, nil
}

// touchInstance records the check on the instance's activation, if any.
func (uc *CheckUseCase) touchInstance(ctx context.Context, tc tenant.Context, licenseID, identifier string, now time.Time) (bool, error) {
	a, err := uc.activationRepo.GetActive(ctx, tc.BrandID, licenseID, identifier)
	if err != nil {
		return false, db.MapError(ctx, err)
	}
	if a == nil {
		return false, nil
	}
	if err := uc.activationRepo.TouchChecked(ctx, a.ID(), now); err != nil {
		return true, db.MapError(ctx, err)
	}
	return true, nil
}
