package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commondto "github.com/keygate-inc/keygate/internal/application/common/dto"
	"github.com/keygate-inc/keygate/internal/application/idempotency"
	"github.com/keygate-inc/keygate/internal/application/licensing/dto"
	"github.com/keygate-inc/keygate/internal/domain/license"
	"github.com/keygate-inc/keygate/internal/domain/tenant"
	"github.com/keygate-inc/keygate/internal/interfaces/http/handlers/testutil"
	"github.com/keygate-inc/keygate/internal/shared/constants"
	"github.com/keygate-inc/keygate/internal/shared/errors"
	"github.com/keygate-inc/keygate/internal/shared/logger"
)

// =====================================================================
// Mock use cases
// =====================================================================

type mockProvisionUC struct {
	result *dto.ProvisionResult
	err    error
	calls  int
	last   dto.ProvisionCommand
}

func (m *mockProvisionUC) Execute(ctx context.Context, cmd dto.ProvisionCommand) (*dto.ProvisionResult, error) {
	m.calls++
	m.last = cmd
	return m.result, m.err
}

type mockRenewUC struct {
	result *commondto.LicenseDTO
	err    error
	last   dto.RenewCommand
}

func (m *mockRenewUC) Execute(ctx context.Context, cmd dto.RenewCommand) (*commondto.LicenseDTO, error) {
	m.last = cmd
	return m.result, m.err
}

type mockTransitionUC struct {
	result *commondto.LicenseDTO
	err    error
	last   dto.TransitionCommand
}

func (m *mockTransitionUC) Execute(ctx context.Context, cmd dto.TransitionCommand) (*commondto.LicenseDTO, error) {
	m.last = cmd
	return m.result, m.err
}

type mockGetLicenseUC struct {
	result *commondto.LicenseDTO
	err    error
}

func (m *mockGetLicenseUC) Execute(ctx context.Context, q dto.GetLicenseQuery) (*commondto.LicenseDTO, error) {
	return m.result, m.err
}

type mockListByEmailUC struct {
	result *dto.ListByEmailResult
	err    error
	last   dto.ListByEmailQuery
}

func (m *mockListByEmailUC) Execute(ctx context.Context, q dto.ListByEmailQuery) (*dto.ListByEmailResult, error) {
	m.last = q
	return m.result, m.err
}

// fakeLedger keeps successful responses per (tenant, token) in memory.
type fakeLedger struct {
	mu      sync.Mutex
	records map[string]*idempotency.Response
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{records: make(map[string]*idempotency.Response)}
}

func (l *fakeLedger) Execute(ctx context.Context, tenantID, token string, cmd idempotency.Command) (*idempotency.Response, error) {
	if token == "" {
		return cmd(ctx)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if rec, ok := l.records[tenantID+"/"+token]; ok {
		return &idempotency.Response{StatusCode: rec.StatusCode, Body: rec.Body, Replayed: true}, nil
	}
	resp, err := cmd(ctx)
	if err != nil {
		return nil, err
	}
	l.records[tenantID+"/"+token] = resp
	return resp, nil
}

// =====================================================================
// Test helpers
// =====================================================================

type licenseHandlerFixture struct {
	handler    *LicenseHandler
	provision  *mockProvisionUC
	renew      *mockRenewUC
	transition *mockTransitionUC
	get        *mockGetLicenseUC
	list       *mockListByEmailUC
}

func newLicenseHandlerFixture() *licenseHandlerFixture {
	f := &licenseHandlerFixture{
		provision:  &mockProvisionUC{},
		renew:      &mockRenewUC{},
		transition: &mockTransitionUC{},
		get:        &mockGetLicenseUC{},
		list:       &mockListByEmailUC{},
	}
	f.handler = NewLicenseHandler(f.provision, f.renew, f.transition, f.get, f.list, newFakeLedger(), logger.NewNopLogger())
	return f
}

func testLicenseDTO(status string) *commondto.LicenseDTO {
	return &commondto.LicenseDTO{
		ID:           "lic-1",
		LicenseKeyID: "key-1",
		ProductID:    "prod-1",
		Status:       status,
		StoredStatus: status,
		Authorized:   status == "valid",
		SeatsDTO:     commondto.SeatsDTO{SeatLimit: 3, SeatsRemaining: 3},
	}
}

var provisionBody = map[string]any{
	"customer_email": "ada@example.com",
	"product_ids":    []string{"prod-1"},
	"seat_limit":     3,
}

// =====================================================================
// Tests
// =====================================================================

func TestLicenseHandler_Provision(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		f := newLicenseHandlerFixture()
		f.provision.result = &dto.ProvisionResult{LicenseKey: "ACME-AAAA-BBBB-CCCC-DDDD", LicenseKeyID: "key-1"}

		c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/brand/licenses/provision", provisionBody)
		testutil.SetTenantContext(c, "brand-1", tenant.ScopeFull)
		f.handler.Provision(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		var resp testutil.APIResponse
		require.NoError(t, testutil.ParseResponse(w, &resp))
		assert.True(t, resp.Success)

		var data dto.ProvisionResult
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		assert.Equal(t, "ACME-AAAA-BBBB-CCCC-DDDD", data.LicenseKey)

		assert.Equal(t, "brand-1", f.provision.last.Tenant.BrandID)
		assert.Equal(t, []string{"prod-1"}, f.provision.last.ProductIDs)
		assert.Equal(t, 3, f.provision.last.SeatLimit)
	})

	t.Run("replayed with the same idempotency key", func(t *testing.T) {
		f := newLicenseHandlerFixture()
		f.provision.result = &dto.ProvisionResult{LicenseKey: "ACME-AAAA-BBBB-CCCC-DDDD", LicenseKeyID: "key-1"}

		c1, w1 := testutil.NewTestContext(http.MethodPost, "/api/v1/brand/licenses/provision", provisionBody)
		testutil.SetTenantContext(c1, "brand-1", tenant.ScopeFull)
		testutil.SetHeader(c1, constants.HeaderIdempotencyKey, "tok-1")
		f.handler.Provision(c1)
		require.Equal(t, http.StatusCreated, w1.Code)
		assert.Empty(t, w1.Header().Get(constants.HeaderIdempotentReplay))

		f.provision.result = &dto.ProvisionResult{LicenseKey: "ACME-ZZZZ-ZZZZ-ZZZZ-ZZZZ"}
		c2, w2 := testutil.NewTestContext(http.MethodPost, "/api/v1/brand/licenses/provision", provisionBody)
		testutil.SetTenantContext(c2, "brand-1", tenant.ScopeFull)
		testutil.SetHeader(c2, constants.HeaderIdempotencyKey, "tok-1")
		f.handler.Provision(c2)

		assert.Equal(t, http.StatusCreated, w2.Code)
		assert.Equal(t, "true", w2.Header().Get(constants.HeaderIdempotentReplay))
		assert.Equal(t, w1.Body.Bytes(), w2.Body.Bytes())
		assert.Equal(t, 1, f.provision.calls)
	})

	t.Run("invalid body", func(t *testing.T) {
		f := newLicenseHandlerFixture()
		c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/brand/licenses/provision", `{"customer_email":`)
		testutil.SetTenantContext(c, "brand-1", tenant.ScopeFull)
		f.handler.Provision(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp testutil.APIResponse
		require.NoError(t, testutil.ParseResponse(w, &resp))
		assert.Equal(t, string(errors.ErrorTypeValidation), resp.Error.Type)
		assert.Equal(t, 0, f.provision.calls)
	})

	t.Run("missing product ids", func(t *testing.T) {
		f := newLicenseHandlerFixture()
		c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/brand/licenses/provision", map[string]any{
			"customer_email": "ada@example.com",
			"seat_limit":     1,
		})
		testutil.SetTenantContext(c, "brand-1", tenant.ScopeFull)
		f.handler.Provision(c)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp testutil.APIResponse
		require.NoError(t, testutil.ParseResponse(w, &resp))
		assert.Contains(t, resp.Error.Details, "product_ids is required")
		assert.Equal(t, 0, f.provision.calls)
	})

	t.Run("unresolved tenant", func(t *testing.T) {
		f := newLicenseHandlerFixture()
		c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/brand/licenses/provision", provisionBody)
		f.handler.Provision(c)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("use case failure is not recorded", func(t *testing.T) {
		f := newLicenseHandlerFixture()
		f.provision.err = errors.NewUnknownReferenceError("product id", "prod-x", true)

		c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/brand/licenses/provision", provisionBody)
		testutil.SetTenantContext(c, "brand-1", tenant.ScopeFull)
		testutil.SetHeader(c, constants.HeaderIdempotencyKey, "tok-2")
		f.handler.Provision(c)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		f.provision.err = nil
		f.provision.result = &dto.ProvisionResult{LicenseKeyID: "key-2"}
		c2, w2 := testutil.NewTestContext(http.MethodPost, "/api/v1/brand/licenses/provision", provisionBody)
		testutil.SetTenantContext(c2, "brand-1", tenant.ScopeFull)
		testutil.SetHeader(c2, constants.HeaderIdempotencyKey, "tok-2")
		f.handler.Provision(c2)
		assert.Equal(t, http.StatusCreated, w2.Code)
		assert.Empty(t, w2.Header().Get(constants.HeaderIdempotentReplay))
		assert.Equal(t, 2, f.provision.calls)
	})
}

func TestLicenseHandler_Transitions(t *testing.T) {
	tests := []struct {
		name   string
		action license.Action
	}{
		{"suspend", license.ActionSuspend},
		{"resume", license.ActionResume},
		{"cancel", license.ActionCancel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLicenseHandlerFixture()
			f.transition.result = testLicenseDTO("suspended")

			c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/brand/licenses/lic-1/"+tt.name, nil)
			testutil.SetTenantContext(c, "brand-1", tenant.ScopeFull)
			testutil.SetURLParam(c, "id", "lic-1")

			switch tt.action {
			case license.ActionSuspend:
				f.handler.Suspend(c)
			case license.ActionResume:
				f.handler.Resume(c)
			case license.ActionCancel:
				f.handler.Cancel(c)
			}

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.action, f.transition.last.Action)
			assert.Equal(t, "lic-1", f.transition.last.LicenseID)
		})
	}

	t.Run("invalid transition", func(t *testing.T) {
		f := newLicenseHandlerFixture()
		f.transition.err = errors.NewInvalidTransitionError("lic-1", "cancelled", "resume")

		c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/brand/licenses/lic-1/resume", nil)
		testutil.SetTenantContext(c, "brand-1", tenant.ScopeFull)
		testutil.SetURLParam(c, "id", "lic-1")
		f.handler.Resume(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		var resp testutil.APIResponse
		require.NoError(t, testutil.ParseResponse(w, &resp))
		assert.Equal(t, string(errors.ErrorTypeInvalidTransition), resp.Error.Type)
		assert.Equal(t, "lic-1", resp.Error.EntityID)
	})
}

func TestLicenseHandler_Renew(t *testing.T) {
	f := newLicenseHandlerFixture()
	f.renew.result = testLicenseDTO("valid")
	expiresAt := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/brand/licenses/lic-1/renew", map[string]any{"expires_at": expiresAt})
	testutil.SetTenantContext(c, "brand-1", tenant.ScopeFull)
	testutil.SetURLParam(c, "id", "lic-1")
	f.handler.Renew(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, expiresAt.Equal(f.renew.last.ExpiresAt))

	c, w = testutil.NewTestContext(http.MethodPost, "/api/v1/brand/licenses/lic-1/renew", map[string]any{})
	testutil.SetTenantContext(c, "brand-1", tenant.ScopeFull)
	testutil.SetURLParam(c, "id", "lic-1")
	f.handler.Renew(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLicenseHandler_GetLicense(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		f := newLicenseHandlerFixture()
		f.get.result = testLicenseDTO("valid")

		c, w := testutil.NewTestContext(http.MethodGet, "/api/v1/brand/licenses/lic-1", nil)
		testutil.SetTenantContext(c, "brand-1", tenant.ScopeRead)
		testutil.SetURLParam(c, "id", "lic-1")
		f.handler.GetLicense(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp testutil.APIResponse
		require.NoError(t, testutil.ParseResponse(w, &resp))
		var data commondto.LicenseDTO
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		assert.Equal(t, "lic-1", data.ID)
	})

	t.Run("other tenant's license looks missing", func(t *testing.T) {
		f := newLicenseHandlerFixture()
		f.get.err = errors.NewCrossTenantAccessError("license", "lic-1")

		c, w := testutil.NewTestContext(http.MethodGet, "/api/v1/brand/licenses/lic-1", nil)
		testutil.SetTenantContext(c, "brand-2", tenant.ScopeRead)
		testutil.SetURLParam(c, "id", "lic-1")
		f.handler.GetLicense(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		var resp testutil.APIResponse
		require.NoError(t, testutil.ParseResponse(w, &resp))
		assert.Equal(t, "license not found", resp.Error.Message)
		assert.Empty(t, resp.Error.EntityID)
	})
}

func TestLicenseHandler_ListByEmail(t *testing.T) {
	f := newLicenseHandlerFixture()
	f.list.result = &dto.ListByEmailResult{CustomerEmail: "ada@example.com"}

	c, w := testutil.NewTestContext(http.MethodGet, "/api/v1/brand/licenses", nil)
	testutil.SetTenantContext(c, "brand-1", tenant.ScopeRead)
	testutil.SetQueryParams(c, map[string]string{"email": " Ada@Example.com "})
	f.handler.ListByEmail(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ada@Example.com", f.list.last.Email)
	assert.Equal(t, "brand-1", f.list.last.Tenant.BrandID)

	c, w = testutil.NewTestContext(http.MethodGet, "/api/v1/brand/licenses", nil)
	testutil.SetTenantContext(c, "brand-1", tenant.ScopeRead)
	f.handler.ListByEmail(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLicenseOrNil(t *testing.T) {
	body, err := licenseOrNil(nil, errors.NewNotFoundError("license not found"))
	require.Error(t, err)
	assert.Nil(t, body, "a failed call must not yield a typed nil")

	l := &commondto.LicenseDTO{ID: "lic-1"}
	body, err = licenseOrNil(l, nil)
	require.NoError(t, err)
	assert.Same(t, l, body)
}
