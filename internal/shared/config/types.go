package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	SlowThresholdMs int    `mapstructure:"slow_threshold_ms"`
}

// GetDSN returns a MySQL DSN. Times are parsed and stored in UTC.
func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// LicensingConfig holds the knobs of the licensing engine.
type LicensingConfig struct {
	IdempotencyTTL    time.Duration `mapstructure:"idempotency_ttl"`
	StorageTimeout    time.Duration `mapstructure:"storage_timeout"`
	StatusCacheTTL    time.Duration `mapstructure:"status_cache_ttl"`
	KeyPepper         string        `mapstructure:"key_pepper"`
	AttestationSecret string        `mapstructure:"attestation_secret"`
	AttestationTTL    time.Duration `mapstructure:"attestation_ttl"`
}

// Event transports.
const (
	EventTransportMemory = "memory"
	EventTransportRedis  = "redis"
	EventTransportAMQP   = "amqp"
)

type EventsConfig struct {
	Transport    string `mapstructure:"transport"`
	BufferSize   int    `mapstructure:"buffer_size"`
	RedisChannel string `mapstructure:"redis_channel"`
	AMQPURL      string `mapstructure:"amqp_url"`
	AMQPExchange string `mapstructure:"amqp_exchange"`
}

type SchedulerConfig struct {
	ExpirySweepInterval      time.Duration `mapstructure:"expiry_sweep_interval"`
	IdempotencyPurgeInterval time.Duration `mapstructure:"idempotency_purge_interval"`
	BatchSize                int           `mapstructure:"batch_size"`
}

type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}
