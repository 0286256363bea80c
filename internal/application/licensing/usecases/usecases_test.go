package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keygate-inc/keygate/internal/application/licensing/dto"
	"github.com/keygate-inc/keygate/internal/application/testutil"
	"github.com/keygate-inc/keygate/internal/domain/license"
	"github.com/keygate-inc/keygate/internal/domain/tenant"
	"github.com/keygate-inc/keygate/internal/shared/errors"
	"github.com/keygate-inc/keygate/internal/shared/id"
)

type suite struct {
	env        *testutil.Env
	provision  *ProvisionLicenseUseCase
	renew      *RenewLicenseUseCase
	transition *TransitionLicenseUseCase
	get        *GetLicenseUseCase
	list       *ListLicensesByEmailUseCase
	expire     *ExpireOverdueUseCase
}

func newSuite(t *testing.T) *suite {
	e := testutil.NewEnv(t)
	return &suite{
		env:        e,
		provision:  NewProvisionLicenseUseCase(e.Brands, e.Products, e.Keys, e.Licenses, e.Keygen, e.TxMgr, e.Publisher, e.Clock, e.Logger),
		renew:      NewRenewLicenseUseCase(e.Licenses, e.Activations, e.TxMgr, e.Publisher, e.Clock, e.Logger),
		transition: NewTransitionLicenseUseCase(e.Licenses, e.Activations, e.TxMgr, e.Publisher, e.Clock, e.Logger),
		get:        NewGetLicenseUseCase(e.Licenses, e.Products, e.Activations, e.Clock, e.Logger),
		list:       NewListLicensesByEmailUseCase(e.Keys, e.Licenses, e.Products, e.Activations, e.Clock, e.Logger),
		expire:     NewExpireOverdueUseCase(e.Licenses, e.TxMgr, e.Publisher, e.Clock, e.Logger),
	}
}

func (s *suite) mustProvision(t *testing.T, tt *testutil.Tenant, seats int, expiresAt *time.Time) *dto.ProvisionResult {
	t.Helper()
	res, err := s.provision.Execute(context.Background(), dto.ProvisionCommand{
		Tenant:        tt.Context,
		CustomerEmail: "buyer@example.com",
		ProductIDs:    tt.ProductIDs(),
		SeatLimit:     seats,
		ExpiresAt:     expiresAt,
	})
	require.NoError(t, err)
	return res
}

func TestProvisionLicenseUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("creates one key and a license per product", func(t *testing.T) {
		s := newSuite(t)
		acme := s.env.SeedTenant(t, "acme", "acme", "suite", "addon")

		res, err := s.provision.Execute(ctx, dto.ProvisionCommand{
			Tenant:        acme.Context,
			CustomerEmail: "  Buyer@Example.COM ",
			ProductIDs:    append(acme.ProductIDs(), acme.ProductIDs()[0]),
			SeatLimit:     3,
		})
		require.NoError(t, err)

		prefix, err := license.ParseKey(res.LicenseKey)
		require.NoError(t, err)
		assert.Equal(t, "ACME", prefix)
		assert.Equal(t, "buyer@example.com", res.CustomerEmail)
		require.Len(t, res.Licenses, 2)
		for _, l := range res.Licenses {
			assert.Equal(t, "valid", l.Status)
			assert.Equal(t, 3, l.SeatLimit)
			assert.Equal(t, 3, l.SeatsRemaining)
		}

		stored, err := s.env.Keys.GetByDigest(ctx, s.env.Keygen.Digest(res.LicenseKey))
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, res.LicenseKeyID, stored.ID())
		assert.NotContains(t, stored.Digest(), res.LicenseKey)

		assert.Equal(t, []string{
			license.EventLicenseKeyCreated,
			license.EventLicenseProvisioned,
			license.EventLicenseProvisioned,
		}, s.env.Publisher.Types())
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		s := newSuite(t)
		acme := s.env.SeedTenant(t, "acme", "ACME", "suite")
		past := testutil.Epoch.Add(-time.Hour)

		cases := []dto.ProvisionCommand{
			{Tenant: acme.Context, CustomerEmail: "buyer@example.com", ProductIDs: acme.ProductIDs(), SeatLimit: 0},
			{Tenant: acme.Context, CustomerEmail: "not-an-email", ProductIDs: acme.ProductIDs(), SeatLimit: 1},
			{Tenant: acme.Context, CustomerEmail: "buyer@example.com", ProductIDs: nil, SeatLimit: 1},
			{Tenant: acme.Context, CustomerEmail: "buyer@example.com", ProductIDs: acme.ProductIDs(), SeatLimit: 1, ExpiresAt: &past},
			{Tenant: acme.Context, CustomerEmail: "buyer@example.com", ProductIDs: []string{id.NewUUID()}, SeatLimit: 1},
		}
		for _, cmd := range cases {
			_, err := s.provision.Execute(ctx, cmd)
			assert.True(t, errors.IsValidationError(err), "expected validation error, got %v", err)
		}
		assert.Empty(t, s.env.Publisher.Types())
	})

	t.Run("foreign product is rejected and nothing is written", func(t *testing.T) {
		s := newSuite(t)
		acme := s.env.SeedTenant(t, "acme", "ACME", "suite")
		other := s.env.SeedTenant(t, "other", "OTH", "tool")

		_, err := s.provision.Execute(ctx, dto.ProvisionCommand{
			Tenant:        acme.Context,
			CustomerEmail: "buyer@example.com",
			ProductIDs:    []string{acme.ProductIDs()[0], other.ProductIDs()[0]},
			SeatLimit:     1,
		})
		require.Error(t, err)
		assert.True(t, errors.IsValidationError(err))
		assert.True(t, errors.IsCrossTenantError(err))

		keys, err := s.env.Keys.ListByEmail(ctx, acme.Brand.ID(), "buyer@example.com")
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("read scope cannot provision", func(t *testing.T) {
		s := newSuite(t)
		acme := s.env.SeedTenant(t, "acme", "ACME", "suite")
		_, err := s.provision.Execute(ctx, dto.ProvisionCommand{
			Tenant:        tenant.NewContext(acme.Brand.ID(), tenant.ScopeRead),
			CustomerEmail: "buyer@example.com",
			ProductIDs:    acme.ProductIDs(),
			SeatLimit:     1,
		})
		assert.True(t, errors.IsType(err, errors.ErrorTypeForbidden))
	})

	t.Run("publisher failure does not fail the command", func(t *testing.T) {
		s := newSuite(t)
		acme := s.env.SeedTenant(t, "acme", "ACME", "suite")
		s.env.Publisher.Fail = true
		res := s.mustProvision(t, acme, 1, nil)
		assert.Len(t, res.Licenses, 1)
	})
}

func TestTransitionLicenseUseCase(t *testing.T) {
	ctx := context.Background()
	s := newSuite(t)
	acme := s.env.SeedTenant(t, "acme", "ACME", "suite")
	licenseID := s.mustProvision(t, acme, 1, nil).Licenses[0].ID

	apply := func(a license.Action) error {
		_, err := s.transition.Execute(ctx, dto.TransitionCommand{Tenant: acme.Context, LicenseID: licenseID, Action: a})
		return err
	}

	require.NoError(t, apply(license.ActionSuspend))

	err := apply(license.ActionSuspend)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidTransition))
	assert.Contains(t, err.Error(), "status suspended")
	assert.Equal(t, licenseID, errors.GetAppError(err).EntityID)

	require.NoError(t, apply(license.ActionResume))
	require.NoError(t, apply(license.ActionCancel))

	for _, a := range []license.Action{license.ActionSuspend, license.ActionResume, license.ActionCancel} {
		err := apply(a)
		assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidTransition), "%s from cancelled", a)
		assert.Contains(t, err.Error(), "status cancelled")
	}

	_, err = s.renew.Execute(ctx, dto.RenewCommand{Tenant: acme.Context, LicenseID: licenseID, ExpiresAt: testutil.Epoch.Add(time.Hour)})
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidTransition))

	got, err := s.get.Execute(ctx, dto.GetLicenseQuery{Tenant: acme.Context, LicenseID: licenseID})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", got.Status)
	assert.Equal(t, "suite", got.ProductSlug)

	assert.Equal(t, []string{
		license.EventLicenseSuspended,
		license.EventLicenseResumed,
		license.EventLicenseCancelled,
	}, s.env.Publisher.Types()[2:])

	_, err = s.transition.Execute(ctx, dto.TransitionCommand{Tenant: acme.Context, LicenseID: licenseID, Action: license.ActionExpire})
	assert.True(t, errors.IsValidationError(err))
}

func TestRenewLicenseUseCase(t *testing.T) {
	ctx := context.Background()
	s := newSuite(t)
	acme := s.env.SeedTenant(t, "acme", "ACME", "suite")
	exp := testutil.Epoch.Add(24 * time.Hour)
	licenseID := s.mustProvision(t, acme, 1, &exp).Licenses[0].ID

	s.env.Clock.Advance(48 * time.Hour)

	got, err := s.get.Execute(ctx, dto.GetLicenseQuery{Tenant: acme.Context, LicenseID: licenseID})
	require.NoError(t, err)
	assert.Equal(t, "expired", got.Status, "expiry is recomputed at read time")
	assert.Equal(t, "valid", got.StoredStatus)
	assert.False(t, got.Authorized)

	_, err = s.renew.Execute(ctx, dto.RenewCommand{Tenant: acme.Context, LicenseID: licenseID, ExpiresAt: s.env.Clock.Now().Add(-time.Minute)})
	assert.True(t, errors.IsValidationError(err))

	sweep, err := s.expire.Execute(ctx, dto.ExpireOverdueCommand{})
	require.NoError(t, err)
	assert.Equal(t, 1, sweep.Expired)

	renewed, err := s.renew.Execute(ctx, dto.RenewCommand{Tenant: acme.Context, LicenseID: licenseID, ExpiresAt: s.env.Clock.Now().Add(30 * 24 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, "valid", renewed.Status)
	assert.Equal(t, "valid", renewed.StoredStatus)
	assert.True(t, renewed.Authorized)
}

func TestExpireOverdueUseCase(t *testing.T) {
	ctx := context.Background()
	s := newSuite(t)
	acme := s.env.SeedTenant(t, "acme", "ACME", "suite")
	soon := testutil.Epoch.Add(time.Hour)
	a := s.mustProvision(t, acme, 1, &soon).Licenses[0].ID
	b := s.mustProvision(t, acme, 1, &soon).Licenses[0].ID
	s.mustProvision(t, acme, 1, nil)

	res, err := s.expire.Execute(ctx, dto.ExpireOverdueCommand{})
	require.NoError(t, err)
	assert.Zero(t, res.Scanned, "nothing is overdue yet")

	s.env.Clock.Set(soon)
	_, err = s.transition.Execute(ctx, dto.TransitionCommand{Tenant: acme.Context, LicenseID: b, Action: license.ActionSuspend})
	require.NoError(t, err)

	dry, err := s.expire.Execute(ctx, dto.ExpireOverdueCommand{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, []string{a}, dry.LicenseIDs)
	assert.Zero(t, dry.Expired)

	s.env.Publisher.Reset()
	res, err = s.expire.Execute(ctx, dto.ExpireOverdueCommand{BatchSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Expired)
	assert.Equal(t, []string{license.EventLicenseExpired}, s.env.Publisher.Types())

	res, err = s.expire.Execute(ctx, dto.ExpireOverdueCommand{})
	require.NoError(t, err)
	assert.Zero(t, res.Scanned)
}

func TestTenantIsolation(t *testing.T) {
	ctx := context.Background()
	s := newSuite(t)
	acme := s.env.SeedTenant(t, "acme", "ACME", "suite")
	other := s.env.SeedTenant(t, "other", "OTH", "tool")
	licenseID := s.mustProvision(t, acme, 1, nil).Licenses[0].ID

	_, foreign := s.transition.Execute(ctx, dto.TransitionCommand{Tenant: other.Context, LicenseID: licenseID, Action: license.ActionCancel})
	_, missing := s.transition.Execute(ctx, dto.TransitionCommand{Tenant: other.Context, LicenseID: id.NewUUID(), Action: license.ActionCancel})
	require.Error(t, foreign)
	require.Error(t, missing)
	assert.True(t, errors.IsNotFoundError(foreign))
	assert.True(t, errors.IsCrossTenantError(foreign))
	assert.False(t, errors.IsCrossTenantError(missing))

	// nothing in the error tells the two apart
	fe, me := errors.GetAppError(foreign), errors.GetAppError(missing)
	assert.Equal(t, me.Message, fe.Message)
	assert.Equal(t, me.Code, fe.Code)
	assert.Empty(t, fe.EntityID)
	assert.Empty(t, fe.Details)

	_, err := s.get.Execute(ctx, dto.GetLicenseQuery{Tenant: other.Context, LicenseID: licenseID})
	assert.True(t, errors.IsCrossTenantError(err))

	_, err = s.renew.Execute(ctx, dto.RenewCommand{Tenant: other.Context, LicenseID: licenseID, ExpiresAt: testutil.Epoch.Add(time.Hour)})
	assert.True(t, errors.IsCrossTenantError(err))

	listed, err := s.list.Execute(ctx, dto.ListByEmailQuery{Tenant: other.Context, Email: "buyer@example.com"})
	require.NoError(t, err)
	assert.Empty(t, listed.LicenseKeys)

	got, err := s.get.Execute(ctx, dto.GetLicenseQuery{Tenant: acme.Context, LicenseID: licenseID})
	require.NoError(t, err)
	assert.Equal(t, "valid", got.Status)
}

func TestListLicensesByEmailUseCase(t *testing.T) {
	ctx := context.Background()
	s := newSuite(t)
	acme := s.env.SeedTenant(t, "acme", "ACME", "suite", "addon")
	first := s.mustProvision(t, acme, 2, nil)
	s.env.Clock.Advance(time.Minute)
	second := s.mustProvision(t, acme, 1, nil)

	res, err := s.list.Execute(ctx, dto.ListByEmailQuery{Tenant: acme.Context, Email: "BUYER@example.com"})
	require.NoError(t, err)
	require.Len(t, res.LicenseKeys, 2)
	assert.Equal(t, first.LicenseKeyID, res.LicenseKeys[0].ID)
	assert.Equal(t, second.LicenseKeyID, res.LicenseKeys[1].ID)
	require.Len(t, res.LicenseKeys[0].Licenses, 2)
	assert.NotEmpty(t, res.LicenseKeys[0].Licenses[0].ProductName)

	_, err = s.list.Execute(ctx, dto.ListByEmailQuery{Tenant: acme.Context, Email: ""})
	assert.True(t, errors.IsValidationError(err))
}
