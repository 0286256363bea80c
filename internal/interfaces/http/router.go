package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "github.com/keygate-inc/keygate/docs"
	"github.com/keygate-inc/keygate/internal/infrastructure/config"
	"github.com/keygate-inc/keygate/internal/interfaces/http/middleware"
	"github.com/keygate-inc/keygate/internal/shared/logger"
)

// Router serves the brand and product APIs.
type Router struct {
	*Container
}

// NewRouter creates a new HTTP router with all dependencies
func NewRouter(ctx context.Context, cfg *config.Config, db *gorm.DB, redisClient *redis.Client, log logger.Interface) (*Router, error) {
	c, err := NewContainer(ctx, cfg, db, redisClient, log)
	if err != nil {
		return nil, err
	}
	return &Router{Container: c}, nil
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes() {
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.Logger(r.log))
	r.engine.Use(middleware.Recovery(r.log))
	r.engine.Use(middleware.StorageTimeout(r.cfg.Licensing.StorageTimeout))

	r.engine.GET("/health", r.healthHandler.Health)
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.setupBrandRoutes()
	r.setupProductRoutes()
}

// setupBrandRoutes configures the API-key authenticated brand API
func (r *Router) setupBrandRoutes() {
	brand := r.engine.Group("/api/v1/brand")
	brand.Use(r.brandAuth.RequireAPIKey(), r.brandAuth.RequireScope())
	{
		brand.POST("/licenses/provision", r.licenseHandler.Provision)
		brand.GET("/licenses", r.licenseHandler.ListByEmail)
		brand.GET("/licenses/:id", r.licenseHandler.GetLicense)
		brand.POST("/licenses/:id/renew", r.licenseHandler.Renew)
		brand.POST("/licenses/:id/suspend", r.licenseHandler.Suspend)
		brand.POST("/licenses/:id/resume", r.licenseHandler.Resume)
		brand.POST("/licenses/:id/cancel", r.licenseHandler.Cancel)
	}
}

// setupProductRoutes configures the license-key authenticated product API
func (r *Router) setupProductRoutes() {
	product := r.engine.Group("/api/v1/product")
	if r.rateLimiter != nil {
		product.Use(r.rateLimiter.Limit())
	}
	product.Use(middleware.RequireLicenseKey())
	{
		product.POST("/activate", r.productHandler.Activate)
		product.POST("/deactivate", r.productHandler.Deactivate)
		product.GET("/status", r.productHandler.Status)
	}
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// Run starts the HTTP server
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}
