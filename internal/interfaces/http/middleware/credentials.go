package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/keygate-inc/keygate/internal/domain/tenant"
	"github.com/keygate-inc/keygate/internal/shared/constants"
	"github.com/keygate-inc/keygate/internal/shared/errors"
	"github.com/keygate-inc/keygate/internal/shared/logger"
	"github.com/keygate-inc/keygate/internal/shared/utils"
)

type tenantResolver interface {
	Execute(ctx context.Context, plaintext string) (tenant.Context, error)
}

type scopeEnforcer interface {
	Enforce(scope tenant.Scope, path, method string) (bool, error)
}

// BrandAuthMiddleware authenticates brand API calls by API key and checks the key's scope.
type BrandAuthMiddleware struct {
	resolver tenantResolver
	enforcer scopeEnforcer
	logger   logger.Interface
}

func NewBrandAuthMiddleware(resolver tenantResolver, enforcer scopeEnforcer, logger logger.Interface) *BrandAuthMiddleware {
	return &BrandAuthMiddleware{
		resolver: resolver,
		enforcer: enforcer,
		logger:   logger,
	}
}

// RequireAPIKey resolves X-API-Key to a tenant context.
func (m *BrandAuthMiddleware) RequireAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(constants.HeaderAPIKey))
		if key == "" {
			utils.ErrorResponseWithError(c, errors.NewUnauthorizedError("missing "+constants.HeaderAPIKey+" header"))
			c.Abort()
			return
		}

		tc, err := m.resolver.Execute(c.Request.Context(), key)
		if err != nil {
			if errors.IsRetryable(err) {
				m.logger.Errorw("failed to resolve api key", "error", err)
			}
			utils.ErrorResponseWithError(c, err)
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTenant, tc)
		c.Next()
	}
}

// RequireScope rejects requests the resolved key's scope does not cover.
// It must run after RequireAPIKey.
func (m *BrandAuthMiddleware) RequireScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get(constants.ContextKeyTenant)
		tc, ok := v.(tenant.Context)
		if !exists || !ok {
			utils.ErrorResponseWithError(c, errors.NewUnauthorizedError(constants.ErrMsgUnauthorized))
			c.Abort()
			return
		}

		allowed, err := m.enforcer.Enforce(tc.Scope, c.Request.URL.Path, c.Request.Method)
		if err != nil {
			m.logger.Errorw("scope check failed", "error", err, "tenant_id", tc.BrandID, "scope", tc.Scope)
			utils.ErrorResponseWithError(c, errors.NewInternalError("permission check failed"))
			c.Abort()
			return
		}

		if !allowed {
			m.logger.Warnw("scope denied",
				"tenant_id", tc.BrandID,
				"scope", tc.Scope,
				"method", c.Request.Method,
				"path", c.Request.URL.Path)
			utils.ErrorResponseWithError(c, errors.NewForbiddenError("api key scope does not allow this operation"))
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireLicenseKey stores the X-License-Key header for the product API handlers.
// The key is resolved by the use cases themselves.
func RequireLicenseKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(constants.HeaderLicenseKey))
		if key == "" {
			utils.ErrorResponseWithError(c, errors.NewUnauthorizedError("missing "+constants.HeaderLicenseKey+" header"))
			c.Abort()
			return
		}
		c.Set(constants.ContextKeyLicense, key)
		c.Next()
	}
}
