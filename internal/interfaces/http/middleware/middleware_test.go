package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keygate-inc/keygate/internal/domain/tenant"
	"github.com/keygate-inc/keygate/internal/shared/constants"
	"github.com/keygate-inc/keygate/internal/shared/errors"
	"github.com/keygate-inc/keygate/internal/shared/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeResolver struct {
	keys map[string]tenant.Context
}

func (f *fakeResolver) Execute(_ context.Context, plaintext string) (tenant.Context, error) {
	tc, ok := f.keys[plaintext]
	if !ok {
		return tenant.Context{}, errors.NewUnauthorizedError("invalid api key")
	}
	return tc, nil
}

type fakeEnforcer struct{}

func (fakeEnforcer) Enforce(scope tenant.Scope, _ string, method string) (bool, error) {
	return scope == tenant.ScopeFull || method == http.MethodGet, nil
}

func newBrandEngine() *gin.Engine {
	m := NewBrandAuthMiddleware(&fakeResolver{keys: map[string]tenant.Context{
		"kg_full": tenant.NewContext("brand-1", tenant.ScopeFull),
		"kg_read": tenant.NewContext("brand-1", tenant.ScopeRead),
	}}, fakeEnforcer{}, logger.NewNopLogger())

	r := gin.New()
	g := r.Group("/api/v1/brand", m.RequireAPIKey(), m.RequireScope())
	handler := func(c *gin.Context) {
		tc := c.MustGet(constants.ContextKeyTenant).(tenant.Context)
		c.String(http.StatusOK, tc.BrandID)
	}
	g.GET("/licenses", handler)
	g.POST("/licenses/provision", handler)
	return r
}

func serve(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBrandAuthMiddleware(t *testing.T) {
	r := newBrandEngine()

	tests := []struct {
		name   string
		method string
		path   string
		key    string
		want   int
	}{
		{"missing key", http.MethodGet, "/api/v1/brand/licenses", "", http.StatusUnauthorized},
		{"unknown key", http.MethodGet, "/api/v1/brand/licenses", "kg_nope", http.StatusUnauthorized},
		{"full key writes", http.MethodPost, "/api/v1/brand/licenses/provision", "kg_full", http.StatusOK},
		{"read key reads", http.MethodGet, "/api/v1/brand/licenses", "kg_read", http.StatusOK},
		{"read key cannot write", http.MethodPost, "/api/v1/brand/licenses/provision", "kg_read", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.key != "" {
				headers[constants.HeaderAPIKey] = tt.key
			}
			w := serve(r, tt.method, tt.path, headers)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "brand-1", w.Body.String())
			}
		})
	}
}

func TestRequireLicenseKey(t *testing.T) {
	r := gin.New()
	r.GET("/status", RequireLicenseKey(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(constants.ContextKeyLicense))
	})

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/status", nil).Code)

	w := serve(r, http.MethodGet, "/status", map[string]string{constants.HeaderLicenseKey: " ACME-AAAA-BBBB-CCCC-DDDD "})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ACME-AAAA-BBBB-CCCC-DDDD", w.Body.String())
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(constants.ContextKeyRequestID))
	})

	w := serve(r, http.MethodGet, "/", map[string]string{constants.HeaderXRequestID: "req-1"})
	assert.Equal(t, "req-1", w.Body.String())
	assert.Equal(t, "req-1", w.Header().Get(constants.HeaderXRequestID))

	w = serve(r, http.MethodGet, "/", nil)
	assert.NotEmpty(t, w.Body.String())
	assert.Equal(t, w.Body.String(), w.Header().Get(constants.HeaderXRequestID))
}

func TestStorageTimeout(t *testing.T) {
	r := gin.New()
	r.GET("/", StorageTimeout(50*time.Millisecond), func(c *gin.Context) {
		deadline, ok := c.Request.Context().Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 50*time.Millisecond)
		c.Status(http.StatusNoContent)
	})
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/", nil).Code)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(logger.NewNopLogger()))
	r.GET("/", func(c *gin.Context) { panic("boom") })

	w := serve(r, http.MethodGet, "/", map[string]string{constants.HeaderAPIKey: "kg_secret"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestDumpHeadersRedactsCredentials(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(constants.HeaderAPIKey, "kg_secret")
	req.Header.Set(constants.HeaderLicenseKey, "ACME-AAAA-BBBB-CCCC-DDDD")

	dump := dumpHeaders(req)
	assert.Contains(t, dump, "X-Api-Key: *")
	assert.Contains(t, dump, "X-License-Key: *")
	for _, h := range dump {
		assert.NotContains(t, h, "kg_secret")
	}
}

func TestRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	rl := NewRateLimiter(client, "product", 2, time.Minute, logger.NewNopLogger())
	fixed := time.Date(2026, 1, 15, 9, 0, 30, 0, time.UTC)
	rl.now = func() time.Time { return fixed }

	r := gin.New()
	r.GET("/", rl.Limit(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get(constants.HeaderRateLimitLimit))
	assert.Equal(t, "1", w.Header().Get(constants.HeaderRateLimitRemain))

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", nil).Code)

	w = serve(r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get(constants.HeaderRateLimitRemain))

	// next window
	fixed = fixed.Add(time.Minute)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", nil).Code)
}

func TestRateLimiterFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	rl := NewRateLimiter(client, "product", 1, time.Minute, logger.NewNopLogger())
	r := gin.New()
	r.GET("/", rl.Limit(), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", nil).Code)
}
