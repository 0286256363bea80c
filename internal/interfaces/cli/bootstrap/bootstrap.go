// Package bootstrap loads configuration and opens the connections shared by
// the keygate commands.
package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/keygate-inc/keygate/internal/infrastructure/config"
	"github.com/keygate-inc/keygate/internal/infrastructure/database"
	"github.com/keygate-inc/keygate/internal/shared/constants"
	"github.com/keygate-inc/keygate/internal/shared/logger"
)

// Runtime is an initialized process environment.
type Runtime struct {
	Env    string
	Config *config.Config
	Logger logger.Interface
	DB     *gorm.DB
	Redis  *redis.Client
}

// ResolveEnv lets the ENV variable override the --env flag.
func ResolveEnv(flag string) string {
	if v := os.Getenv("ENV"); v != "" {
		return v
	}
	return flag
}

// Load reads the configuration and initializes the logger.
func Load(env string) (*Runtime, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(&cfg.Logger, env == constants.EnvDevelopment); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return &Runtime{Env: env, Config: cfg, Logger: logger.NewLogger()}, nil
}

// Open loads the configuration and connects to the database. Redis is
// optional: when it is unreachable the runtime continues without it.
func Open(ctx context.Context, env string) (*Runtime, error) {
	rt, err := Load(env)
	if err != nil {
		return nil, err
	}

	if err := database.Init(&rt.Config.Database); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	rt.DB = database.Get()

	client, err := database.NewRedisClient(ctx, &rt.Config.Redis)
	if err != nil {
		rt.Logger.Warnw("redis unavailable, status cache and rate limiting disabled", "error", err)
	} else {
		rt.Redis = client
		rt.Logger.Infow("redis connection established", "address", rt.Config.Redis.GetAddr())
	}
	return rt, nil
}

// Close releases the connections opened by Open.
func (rt *Runtime) Close() {
	if rt.Redis != nil {
		if err := rt.Redis.Close(); err != nil {
			rt.Logger.Warnw("failed to close redis", "error", err)
		}
	}
	if rt.DB != nil {
		if err := database.Close(); err != nil {
			rt.Logger.Warnw("failed to close database", "error", err)
		}
	}
}
