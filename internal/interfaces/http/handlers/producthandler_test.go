package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keygate-inc/keygate/internal/application/activation/dto"
	commondto "github.com/keygate-inc/keygate/internal/application/common/dto"
	"github.com/keygate-inc/keygate/internal/interfaces/http/handlers/testutil"
	apperrors "github.com/keygate-inc/keygate/internal/shared/errors"
	"github.com/keygate-inc/keygate/internal/shared/logger"
)

type mockActivateUC struct {
	result *dto.ActivateResult
	err    error
	last   dto.ActivateCommand
}

func (m *mockActivateUC) Execute(ctx context.Context, cmd dto.ActivateCommand) (*dto.ActivateResult, error) {
	m.last = cmd
	return m.result, m.err
}

type mockDeactivateUC struct {
	result *dto.DeactivateResult
	err    error
	last   dto.DeactivateCommand
}

func (m *mockDeactivateUC) Execute(ctx context.Context, cmd dto.DeactivateCommand) (*dto.DeactivateResult, error) {
	m.last = cmd
	return m.result, m.err
}

type mockCheckUC struct {
	result *dto.CheckResult
	err    error
	last   dto.CheckCommand
}

func (m *mockCheckUC) Execute(ctx context.Context, cmd dto.CheckCommand) (*dto.CheckResult, error) {
	m.last = cmd
	return m.result, m.err
}

const testLicenseKey = "ACME-AAAA-BBBB-CCCC-DDDD"

func newTestProductHandler() (*ProductHandler, *mockActivateUC, *mockDeactivateUC, *mockCheckUC) {
	a, d, c := &mockActivateUC{}, &mockDeactivateUC{}, &mockCheckUC{}
	return NewProductHandler(a, d, c, logger.NewNopLogger()), a, d, c
}

var activateBody = map[string]any{
	"instance_identifier": "https://shop.example.com",
	"instance_type":       "url",
	"instance_metadata":   map[string]any{"version": "6.4"},
}

func TestProductHandler_Activate(t *testing.T) {
	t.Run("new seat", func(t *testing.T) {
		h, uc, _, _ := newTestProductHandler()
		uc.result = &dto.ActivateResult{
			Activation: commondto.ActivationDTO{ID: "act-1", Active: true},
			Seats:      commondto.SeatsDTO{SeatLimit: 2, SeatsUsed: 1, SeatsRemaining: 1},
		}

		c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/product/activate", activateBody)
		testutil.SetLicenseKey(c, testLicenseKey)
		h.Activate(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, testLicenseKey, uc.last.LicenseKey)
		assert.Equal(t, "url", uc.last.InstanceType)
		assert.Equal(t, "6.4", uc.last.Metadata["version"])

		var resp testutil.APIResponse
		require.NoError(t, testutil.ParseResponse(w, &resp))
		var data dto.ActivateResult
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		assert.Equal(t, 1, data.Seats.SeatsRemaining)
	})

	t.Run("already active", func(t *testing.T) {
		h, uc, _, _ := newTestProductHandler()
		uc.result = &dto.ActivateResult{AlreadyActive: true}

		c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/product/activate", activateBody)
		testutil.SetLicenseKey(c, testLicenseKey)
		h.Activate(c)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("seat limit", func(t *testing.T) {
		h, uc, _, _ := newTestProductHandler()
		uc.err = apperrors.NewSeatLimitExceededError("lic-1", 2)

		c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/product/activate", activateBody)
		testutil.SetLicenseKey(c, testLicenseKey)
		h.Activate(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		var resp testutil.APIResponse
		require.NoError(t, testutil.ParseResponse(w, &resp))
		assert.Equal(t, string(apperrors.ErrorTypeSeatLimitExceeded), resp.Error.Type)
	})

	t.Run("not authorized", func(t *testing.T) {
		h, uc, _, _ := newTestProductHandler()
		uc.err = apperrors.NewLicenseNotAuthorizedError("lic-1", "suspended")

		c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/product/activate", activateBody)
		testutil.SetLicenseKey(c, testLicenseKey)
		h.Activate(c)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("storage timeout is retryable", func(t *testing.T) {
		h, uc, _, _ := newTestProductHandler()
		uc.err = apperrors.NewStorageTimeoutError(context.DeadlineExceeded)

		c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/product/activate", activateBody)
		testutil.SetLicenseKey(c, testLicenseKey)
		h.Activate(c)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var resp testutil.APIResponse
		require.NoError(t, testutil.ParseResponse(w, &resp))
		assert.True(t, resp.Error.Retryable)
	})

	t.Run("unexpected error hides details", func(t *testing.T) {
		h, uc, _, _ := newTestProductHandler()
		uc.err = errors.New("dial tcp 10.0.0.5:3306: connection refused")

		c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/product/activate", activateBody)
		testutil.SetLicenseKey(c, testLicenseKey)
		h.Activate(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "10.0.0.5")
	})

	t.Run("missing key", func(t *testing.T) {
		h, _, _, _ := newTestProductHandler()
		c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/product/activate", activateBody)
		h.Activate(c)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing instance", func(t *testing.T) {
		h, _, _, _ := newTestProductHandler()
		c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/product/activate", map[string]any{"instance_type": "url"})
		testutil.SetLicenseKey(c, testLicenseKey)
		h.Activate(c)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestProductHandler_Deactivate(t *testing.T) {
	h, _, uc, _ := newTestProductHandler()
	uc.result = &dto.DeactivateResult{Deactivated: 1}

	c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/product/deactivate", map[string]any{"instance_identifier": "host-a"})
	testutil.SetLicenseKey(c, testLicenseKey)
	h.Deactivate(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "host-a", uc.last.InstanceIdentifier)
	assert.Equal(t, testLicenseKey, uc.last.LicenseKey)
}

func TestProductHandler_Status(t *testing.T) {
	h, _, _, uc := newTestProductHandler()
	uc.result = &dto.CheckResult{LicenseKeyID: "key-1", Valid: true}

	c, w := testutil.NewTestContext(http.MethodGet, "/api/v1/product/status", nil)
	testutil.SetLicenseKey(c, testLicenseKey)
	testutil.SetQueryParams(c, map[string]string{"instance_identifier": " host-a "})
	h.Status(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "host-a", uc.last.InstanceIdentifier)

	uc.err = apperrors.NewNotFoundError("license key not found")
	c, w = testutil.NewTestContext(http.MethodGet, "/api/v1/product/status", nil)
	testutil.SetLicenseKey(c, testLicenseKey)
	h.Status(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthHandler(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("unreachable") }

	h := NewHealthHandler(map[string]HealthCheck{"database": ok, "redis": ok}, logger.NewNopLogger())
	c, w := testutil.NewTestContext(http.MethodGet, "/health", nil)
	h.Health(c)
	assert.Equal(t, http.StatusOK, w.Code)

	h = NewHealthHandler(map[string]HealthCheck{"database": ok, "redis": down}, logger.NewNopLogger())
	c, w = testutil.NewTestContext(http.MethodGet, "/health", nil)
	h.Health(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	var data HealthResponse
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "down", data.Checks["redis"])
	assert.Equal(t, "ok", data.Checks["database"])
}
