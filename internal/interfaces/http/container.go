package http

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	activationUsecases "github.com/keygate-inc/keygate/internal/application/activation/usecases"
	"github.com/keygate-inc/keygate/internal/application/idempotency"
	licensingUsecases "github.com/keygate-inc/keygate/internal/application/licensing/usecases"
	tenantUsecases "github.com/keygate-inc/keygate/internal/application/tenant/usecases"
	"github.com/keygate-inc/keygate/internal/domain/license"
	"github.com/keygate-inc/keygate/internal/domain/shared/events"
	"github.com/keygate-inc/keygate/internal/infrastructure/auth"
	"github.com/keygate-inc/keygate/internal/infrastructure/cache"
	"github.com/keygate-inc/keygate/internal/infrastructure/config"
	"github.com/keygate-inc/keygate/internal/infrastructure/permission"
	"github.com/keygate-inc/keygate/internal/infrastructure/pubsub"
	"github.com/keygate-inc/keygate/internal/interfaces/http/handlers"
	"github.com/keygate-inc/keygate/internal/interfaces/http/middleware"
	"github.com/keygate-inc/keygate/internal/shared/biztime"
	sharedConfig "github.com/keygate-inc/keygate/internal/shared/config"
	"github.com/keygate-inc/keygate/internal/shared/db"
	"github.com/keygate-inc/keygate/internal/shared/logger"
)

// Container holds every wired dependency of the service. The HTTP server, the
// worker and the admin commands all build one.
type Container struct {
	engine *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
	log    logger.Interface
	redis  *redis.Client

	repos  *repositories
	keygen *license.KeyGenerator
	txMgr  *db.TransactionManager
	clock  biztime.Clock

	// Event transport
	publisher  events.EventPublisher
	dispatcher *events.InMemoryEventDispatcher
	amqp       *pubsub.AMQPPublisher
	bus        *pubsub.RedisEventBus

	statusCache activationUsecases.StatusCache
	enforcer    *permission.Enforcer

	// Use cases
	provisionUC    *licensingUsecases.ProvisionLicenseUseCase
	renewUC        *licensingUsecases.RenewLicenseUseCase
	transitionUC   *licensingUsecases.TransitionLicenseUseCase
	getLicenseUC   *licensingUsecases.GetLicenseUseCase
	listByEmailUC  *licensingUsecases.ListLicensesByEmailUseCase
	expireUC       *licensingUsecases.ExpireOverdueUseCase
	activateUC     *activationUsecases.ActivateUseCase
	deactivateUC   *activationUsecases.DeactivateUseCase
	checkUC        *activationUsecases.CheckUseCase
	createBrandUC  *tenantUsecases.CreateBrandUseCase
	createAPIKeyUC *tenantUsecases.CreateAPIKeyUseCase
	resolveUC      *tenantUsecases.ResolveTenantUseCase
	ledger         *idempotency.Ledger
	purger         *idempotency.Purger

	// Handlers and middlewares
	licenseHandler *handlers.LicenseHandler
	productHandler *handlers.ProductHandler
	healthHandler  *handlers.HealthHandler
	brandAuth      *middleware.BrandAuthMiddleware
	rateLimiter    *middleware.RateLimiter
}

// NewContainer wires the service. redisClient may be nil, in which case the
// status cache and the rate limiter are disabled.
func NewContainer(ctx context.Context, cfg *config.Config, gdb *gorm.DB, redisClient *redis.Client, log logger.Interface) (*Container, error) {
	c := &Container{
		engine: gin.New(),
		db:     gdb,
		cfg:    cfg,
		log:    log,
		redis:  redisClient,
		txMgr:  db.NewTransactionManager(gdb),
		clock:  biztime.SystemClock{},
	}

	keygen, err := license.NewKeyGenerator(cfg.Licensing.KeyPepper)
	if err != nil {
		return nil, fmt.Errorf("failed to create key generator: %w", err)
	}
	c.keygen = keygen
	c.repos = newRepositories(gdb, log)

	if err := c.initEvents(ctx); err != nil {
		return nil, err
	}
	if err := c.initUseCases(); err != nil {
		return nil, err
	}
	c.initHandlers()

	return c, nil
}

// initEvents selects the transport and registers the status cache invalidator.
func (c *Container) initEvents(ctx context.Context) error {
	var local []events.EventHandler
	c.statusCache = activationUsecases.NopStatusCache()
	if c.redis != nil {
		statusCache := cache.NewRedisStatusCache(c.redis, c.cfg.Licensing.StatusCacheTTL, c.log)
		c.statusCache = statusCache
		local = append(local, cache.NewStatusInvalidator(statusCache))
	}

	switch c.cfg.Events.Transport {
	case sharedConfig.EventTransportRedis:
		if c.redis == nil {
			return fmt.Errorf("events.transport redis requires a redis connection")
		}
		c.bus = pubsub.NewRedisEventBus(c.redis, c.cfg.Events.RedisChannel, c.log)
		c.publisher = pubsub.NewSink(c.bus, c.log, local...)

	case sharedConfig.EventTransportAMQP:
		pub, err := pubsub.DialAMQP(ctx, c.cfg.Events.AMQPURL, c.cfg.Events.AMQPExchange, c.log)
		if err != nil {
			return fmt.Errorf("failed to connect to amqp: %w", err)
		}
		c.amqp = pub
		c.publisher = pubsub.NewSink(pub, c.log, local...)

	default:
		c.dispatcher = events.NewInMemoryEventDispatcher(c.cfg.Events.BufferSize, c.log)
		for _, h := range local {
			if err := c.dispatcher.Subscribe(events.AllEvents, h); err != nil {
				return fmt.Errorf("failed to subscribe event handler: %w", err)
			}
		}
		if err := c.dispatcher.Start(); err != nil {
			return fmt.Errorf("failed to start event dispatcher: %w", err)
		}
		c.publisher = pubsub.NewSink(c.dispatcher, c.log)
	}

	c.log.Infow("event transport ready", "transport", c.cfg.Events.Transport, "status_cache", c.redis != nil)
	return nil
}

func (c *Container) initUseCases() error {
	r := c.repos

	var signer activationUsecases.AttestationSigner
	if c.cfg.Licensing.AttestationSecret != "" {
		signer = auth.NewAttestationService(c.cfg.Licensing.AttestationSecret, c.cfg.Licensing.AttestationTTL)
	}

	resolver := activationUsecases.NewKeyResolver(c.keygen, r.keyRepo)
	c.activateUC = activationUsecases.NewActivateUseCase(resolver, r.productRepo, r.licenseRepo, r.activationRepo, c.txMgr, c.publisher, c.clock, c.log)
	c.deactivateUC = activationUsecases.NewDeactivateUseCase(resolver, r.licenseRepo, r.activationRepo, c.txMgr, c.publisher, c.clock, c.log)
	c.checkUC = activationUsecases.NewCheckUseCase(resolver, r.productRepo, r.licenseRepo, r.activationRepo, c.statusCache, signer, c.clock, c.log)

	c.provisionUC = licensingUsecases.NewProvisionLicenseUseCase(r.brandRepo, r.productRepo, r.keyRepo, r.licenseRepo, c.keygen, c.txMgr, c.publisher, c.clock, c.log)
	c.renewUC = licensingUsecases.NewRenewLicenseUseCase(r.licenseRepo, r.activationRepo, c.txMgr, c.publisher, c.clock, c.log)
	c.transitionUC = licensingUsecases.NewTransitionLicenseUseCase(r.licenseRepo, r.activationRepo, c.txMgr, c.publisher, c.clock, c.log)
	c.getLicenseUC = licensingUsecases.NewGetLicenseUseCase(r.licenseRepo, r.productRepo, r.activationRepo, c.clock, c.log)
	c.listByEmailUC = licensingUsecases.NewListLicensesByEmailUseCase(r.keyRepo, r.licenseRepo, r.productRepo, r.activationRepo, c.clock, c.log)
	c.expireUC = licensingUsecases.NewExpireOverdueUseCase(r.licenseRepo, c.txMgr, c.publisher, c.clock, c.log)

	c.createBrandUC = tenantUsecases.NewCreateBrandUseCase(r.brandRepo, r.productRepo, r.apiKeyRepo, c.keygen, c.txMgr, c.clock, c.log)
	c.createAPIKeyUC = tenantUsecases.NewCreateAPIKeyUseCase(r.brandRepo, r.apiKeyRepo, c.keygen, c.clock, c.log)
	c.resolveUC = tenantUsecases.NewResolveTenantUseCase(r.apiKeyRepo, c.keygen, c.clock, c.log)

	c.ledger = idempotency.NewLedger(r.idempotencyRepo, c.txMgr, c.clock, c.cfg.Licensing.IdempotencyTTL, c.log)
	c.purger = idempotency.NewPurger(r.idempotencyRepo, c.clock, c.log)

	enforcer, err := permission.NewEnforcer(c.db, c.log)
	if err != nil {
		return fmt.Errorf("failed to create permission enforcer: %w", err)
	}
	c.enforcer = enforcer
	return nil
}

func (c *Container) initHandlers() {
	c.licenseHandler = handlers.NewLicenseHandler(c.provisionUC, c.renewUC, c.transitionUC, c.getLicenseUC, c.listByEmailUC, c.ledger, c.log)
	c.productHandler = handlers.NewProductHandler(c.activateUC, c.deactivateUC, c.checkUC, c.log)

	checks := map[string]handlers.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := c.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if c.redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return c.redis.Ping(ctx).Err()
		}
	}
	c.healthHandler = handlers.NewHealthHandler(checks, c.log)

	c.brandAuth = middleware.NewBrandAuthMiddleware(c.resolveUC, c.enforcer, c.log)
	if c.cfg.RateLimit.Enabled && c.redis != nil {
		c.rateLimiter = middleware.NewRateLimiter(c.redis, "product", c.cfg.RateLimit.Requests, c.cfg.RateLimit.Window, c.log)
	}
}

// ExpireOverdue returns the expiry sweep use case
func (c *Container) ExpireOverdue() *licensingUsecases.ExpireOverdueUseCase { return c.expireUC }

// IdempotencyPurger returns the idempotency record purger
func (c *Container) IdempotencyPurger() *idempotency.Purger { return c.purger }

// CreateBrand returns the brand bootstrap use case
func (c *Container) CreateBrand() *tenantUsecases.CreateBrandUseCase { return c.createBrandUC }

// CreateAPIKey returns the API key issuing use case
func (c *Container) CreateAPIKey() *tenantUsecases.CreateAPIKeyUseCase { return c.createAPIKeyUC }

// EventBus returns the Redis event bus, or nil for other transports.
func (c *Container) EventBus() *pubsub.RedisEventBus { return c.bus }

// Shutdown drains the event transport.
func (c *Container) Shutdown() {
	if c.dispatcher != nil {
		if err := c.dispatcher.Stop(); err != nil {
			c.log.Warnw("failed to stop event dispatcher", "error", err)
		}
	}
	if c.amqp != nil {
		if err := c.amqp.Close(); err != nil {
			c.log.Warnw("failed to close amqp publisher", "error", err)
		}
	}
}
