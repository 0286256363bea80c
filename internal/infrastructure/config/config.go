package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/keygate-inc/keygate/internal/shared/config"
)

type Config struct {
	Server    sharedConfig.ServerConfig    `mapstructure:"server"`
	Database  sharedConfig.DatabaseConfig  `mapstructure:"database"`
	Logger    sharedConfig.LoggerConfig    `mapstructure:"logger"`
	Redis     sharedConfig.RedisConfig     `mapstructure:"redis"`
	Licensing sharedConfig.LicensingConfig `mapstructure:"licensing"`
	Events    sharedConfig.EventsConfig    `mapstructure:"events"`
	Scheduler sharedConfig.SchedulerConfig `mapstructure:"scheduler"`
	RateLimit sharedConfig.RateLimitConfig `mapstructure:"ratelimit"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load reads configs/config.yaml, overlays configs/config.<env>.yaml when present,
// then applies KEYGATE_* environment variables.
func Load(env string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range []string{"./configs", "../configs", "../../configs"} {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("KEYGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		v.SetConfigName("config." + env)
		if err := v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to merge %s config: %w", env, err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Licensing.IdempotencyTTL <= 0 {
		return fmt.Errorf("licensing.idempotency_ttl must be positive")
	}
	if c.Licensing.StorageTimeout <= 0 {
		return fmt.Errorf("licensing.storage_timeout must be positive")
	}
	switch c.Events.Transport {
	case sharedConfig.EventTransportMemory, sharedConfig.EventTransportRedis, sharedConfig.EventTransportAMQP:
	default:
		return fmt.Errorf("unknown events.transport %q", c.Events.Transport)
	}
	if c.Events.Transport == sharedConfig.EventTransportAMQP && c.Events.AMQPURL == "" {
		return fmt.Errorf("events.amqp_url is required for the amqp transport")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "keygate_dev")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("database.slow_threshold_ms", 200)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Licensing defaults
	v.SetDefault("licensing.idempotency_ttl", "24h")
	v.SetDefault("licensing.storage_timeout", "5s")
	v.SetDefault("licensing.status_cache_ttl", "60s")
	v.SetDefault("licensing.key_pepper", "change-me-in-production")
	v.SetDefault("licensing.attestation_secret", "")
	v.SetDefault("licensing.attestation_ttl", "1h")

	// Events defaults
	v.SetDefault("events.transport", sharedConfig.EventTransportMemory)
	v.SetDefault("events.buffer_size", 1000)
	v.SetDefault("events.redis_channel", "keygate:events")
	v.SetDefault("events.amqp_exchange", "keygate.events")

	// Scheduler defaults
	v.SetDefault("scheduler.expiry_sweep_interval", "10m")
	v.SetDefault("scheduler.idempotency_purge_interval", "1h")
	v.SetDefault("scheduler.batch_size", 500)

	// Rate limit defaults
	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.requests", 120)
	v.SetDefault("ratelimit.window", "1m")
}
