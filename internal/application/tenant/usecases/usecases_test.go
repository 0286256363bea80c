package usecases

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keygate-inc/keygate/internal/application/tenant/dto"
	"github.com/keygate-inc/keygate/internal/application/testutil"
	"github.com/keygate-inc/keygate/internal/domain/tenant"
	"github.com/keygate-inc/keygate/internal/shared/errors"
)

func newCreateBrand(e *testutil.Env) *CreateBrandUseCase {
	return NewCreateBrandUseCase(e.Brands, e.Products, e.APIKeys, e.Keygen, e.TxMgr, e.Clock, e.Logger)
}

func TestCreateBrandUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("creates brand, products and a full key", func(t *testing.T) {
		e := testutil.NewEnv(t)
		res, err := newCreateBrand(e).Execute(ctx, dto.CreateBrandCommand{
			Name:      "Acme Corp",
			Slug:      "acme",
			KeyPrefix: "acme",
			Products: []dto.ProductSpec{
				{Slug: "suite", Name: "Acme Suite"},
				{Slug: "addon"},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, "ACME", res.KeyPrefix)
		require.Len(t, res.Products, 2)
		assert.Equal(t, "addon", res.Products[1].Name)
		assert.Equal(t, "full", res.APIKey.Scope)
		assert.Equal(t, "default", res.APIKey.Name)
		assert.True(t, strings.HasPrefix(res.APIKey.Key, "kg_"))

		stored, err := e.APIKeys.GetByDigest(ctx, e.Keygen.Sum(res.APIKey.Key))
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, res.ID, stored.BrandID())
	})

	t.Run("invalid input writes nothing", func(t *testing.T) {
		e := testutil.NewEnv(t)
		uc := newCreateBrand(e)

		bad := []dto.CreateBrandCommand{
			{Name: "", Slug: "acme", KeyPrefix: "ACME"},
			{Name: "Acme", Slug: "acme", KeyPrefix: "A"},
			{Name: "Acme", Slug: "Not A Slug", KeyPrefix: "ACME"},
			{Name: "Acme", Slug: "acme", KeyPrefix: "ACME", Scope: "admin"},
		}
		for _, cmd := range bad {
			_, err := uc.Execute(ctx, cmd)
			assert.True(t, errors.IsValidationError(err), "expected validation error for %+v", cmd)
		}

		_, err := e.Brands.GetBySlug(ctx, "acme")
		assert.True(t, errors.IsNotFoundError(err))
	})

	t.Run("duplicate slug conflicts", func(t *testing.T) {
		e := testutil.NewEnv(t)
		uc := newCreateBrand(e)
		_, err := uc.Execute(ctx, dto.CreateBrandCommand{Name: "Acme", Slug: "acme", KeyPrefix: "ACME"})
		require.NoError(t, err)
		_, err = uc.Execute(ctx, dto.CreateBrandCommand{Name: "Acme 2", Slug: "acme", KeyPrefix: "ACM"})
		assert.True(t, errors.IsConflictError(err))
	})
}

func TestResolveTenantUseCase(t *testing.T) {
	ctx := context.Background()
	e := testutil.NewEnv(t)
	acme := e.SeedTenant(t, "acme", "ACME")

	issue := NewCreateAPIKeyUseCase(e.Brands, e.APIKeys, e.Keygen, e.Clock, e.Logger)
	readKey, err := issue.Execute(ctx, dto.CreateAPIKeyCommand{BrandSlug: "acme", Name: "ci", Scope: "READ"})
	require.NoError(t, err)
	assert.Equal(t, "read", readKey.Scope)

	expiry := testutil.Epoch.Add(time.Hour)
	shortKey, err := issue.Execute(ctx, dto.CreateAPIKeyCommand{BrandSlug: "acme", ExpiresAt: &expiry})
	require.NoError(t, err)

	resolve := NewResolveTenantUseCase(e.APIKeys, e.Keygen, e.Clock, e.Logger)

	tc, err := resolve.Execute(ctx, readKey.Key)
	require.NoError(t, err)
	assert.Equal(t, acme.Brand.ID(), tc.BrandID)
	assert.Equal(t, tenant.ScopeRead, tc.Scope)
	assert.False(t, tc.CanWrite())

	tc, err = resolve.Execute(ctx, shortKey.Key)
	require.NoError(t, err)
	assert.True(t, tc.CanWrite())

	for _, k := range []string{"", "kg_unknown", strings.ToUpper(readKey.Key)} {
		_, err := resolve.Execute(ctx, k)
		assert.True(t, errors.IsType(err, errors.ErrorTypeUnauthorized), "key %q", k)
	}

	// expiry is checked on every call, cached or not
	e.Clock.Set(expiry)
	_, err = resolve.Execute(ctx, shortKey.Key)
	assert.True(t, errors.IsType(err, errors.ErrorTypeUnauthorized))

	_, err = issue.Execute(ctx, dto.CreateAPIKeyCommand{BrandSlug: "missing"})
	assert.True(t, errors.IsNotFoundError(err))
}
