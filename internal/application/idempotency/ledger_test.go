package idempotency

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keygate-inc/keygate/internal/application/licensing/dto"
	"github.com/keygate-inc/keygate/internal/application/licensing/usecases"
	"github.com/keygate-inc/keygate/internal/application/testutil"
	"github.com/keygate-inc/keygate/internal/shared/errors"
)

type fixture struct {
	env       *testutil.Env
	tenant    *testutil.Tenant
	ledger    *Ledger
	provision *usecases.ProvisionLicenseUseCase
}

func newFixture(t *testing.T) *fixture {
	e := testutil.NewEnv(t)
	return &fixture{
		env:       e,
		tenant:    e.SeedTenant(t, "acme", "ACME", "suite"),
		ledger:    NewLedger(e.Records, e.TxMgr, e.Clock, 0, e.Logger),
		provision: usecases.NewProvisionLicenseUseCase(e.Brands, e.Products, e.Keys, e.Licenses, e.Keygen, e.TxMgr, e.Publisher, e.Clock, e.Logger),
	}
}

func (f *fixture) provisionCmd(email string) Command {
	return func(ctx context.Context) (*Response, error) {
		res, err := f.provision.Execute(ctx, dto.ProvisionCommand{
			Tenant:        f.tenant.Context,
			CustomerEmail: email,
			ProductIDs:    f.tenant.ProductIDs(),
			SeatLimit:     1,
		})
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(res)
		if err != nil {
			return nil, err
		}
		return &Response{StatusCode: http.StatusCreated, Body: body}, nil
	}
}

func (f *fixture) keyCount(t *testing.T, email string) int {
	t.Helper()
	keys, err := f.env.Keys.ListByEmail(context.Background(), f.tenant.Brand.ID(), email)
	require.NoError(t, err)
	return len(keys)
}

func TestLedgerReplaysStoredResponse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	brandID := f.tenant.Brand.ID()

	first, err := f.ledger.Execute(ctx, brandID, "tok-1", f.provisionCmd("buyer@example.com"))
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	// a different body under the same token still replays the first response
	second, err := f.ledger.Execute(ctx, brandID, "tok-1", f.provisionCmd("other@example.com"))
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.StatusCode, second.StatusCode)
	assert.Equal(t, first.Body, second.Body)

	assert.Equal(t, 1, f.keyCount(t, "buyer@example.com"))
	assert.Zero(t, f.keyCount(t, "other@example.com"))
}

func TestLedgerTokensAreTenantScoped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	other := f.env.SeedTenant(t, "other", "OTH", "tool")

	_, err := f.ledger.Execute(ctx, f.tenant.Brand.ID(), "shared", f.provisionCmd("buyer@example.com"))
	require.NoError(t, err)

	ran := false
	resp, err := f.ledger.Execute(ctx, other.Brand.ID(), "shared", func(context.Context) (*Response, error) {
		ran = true
		return &Response{StatusCode: http.StatusOK, Body: []byte(`{}`)}, nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.False(t, resp.Replayed)
}

func TestLedgerExpiredRecordRunsAgain(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	brandID := f.tenant.Brand.ID()

	_, err := f.ledger.Execute(ctx, brandID, "tok", f.provisionCmd("buyer@example.com"))
	require.NoError(t, err)

	f.env.Clock.Advance(24*time.Hour + time.Second)

	again, err := f.ledger.Execute(ctx, brandID, "tok", f.provisionCmd("buyer@example.com"))
	require.NoError(t, err)
	assert.False(t, again.Replayed)
	assert.Equal(t, 2, f.keyCount(t, "buyer@example.com"))
}

func TestLedgerDoesNotRecordFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	brandID := f.tenant.Brand.ID()

	_, err := f.ledger.Execute(ctx, brandID, "tok", f.provisionCmd("not-an-email"))
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))

	ok, err := f.ledger.Execute(ctx, brandID, "tok", f.provisionCmd("buyer@example.com"))
	require.NoError(t, err)
	assert.False(t, ok.Replayed)
}

func TestLedgerTokenAndTenantRequirements(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.ledger.Execute(ctx, f.tenant.Brand.ID(), "", f.provisionCmd("buyer@example.com"))
	require.NoError(t, err)
	assert.Equal(t, 1, f.keyCount(t, "buyer@example.com"), "an empty token runs the command without a record")

	_, err = f.ledger.Execute(ctx, "", "tok", f.provisionCmd("buyer@example.com"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeUnauthorized))
	assert.Equal(t, 1, f.keyCount(t, "buyer@example.com"))
}

func TestLedgerConcurrentDuplicates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	brandID := f.tenant.Brand.ID()

	const n = 5
	responses := make([]*Response, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			responses[i], errs[i] = f.ledger.Execute(ctx, brandID, "race", f.provisionCmd("buyer@example.com"))
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, responses[0].Body, responses[i].Body)
	}
	assert.Equal(t, 1, f.keyCount(t, "buyer@example.com"))
}

func TestLedgerRejectsLongToken(t *testing.T) {
	f := newFixture(t)
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'k'
	}
	_, err := f.ledger.Execute(context.Background(), f.tenant.Brand.ID(), string(long), f.provisionCmd("buyer@example.com"))
	assert.True(t, errors.IsValidationError(err))
}

func TestPurger(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	brandID := f.tenant.Brand.ID()

	for _, tok := range []string{"a", "b", "c"} {
		_, err := f.ledger.Execute(ctx, brandID, tok, func(context.Context) (*Response, error) {
			return &Response{StatusCode: http.StatusOK, Body: []byte(`{"ok":true}`)}, nil
		})
		require.NoError(t, err)
	}

	purger := NewPurger(f.env.Records, f.env.Clock, f.env.Logger)
	n, err := purger.Purge(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.env.Clock.Advance(25 * time.Hour)
	n, err = purger.Purge(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	n, err = purger.Purge(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
