package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedConfig "github.com/keygate-inc/keygate/internal/shared/config"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 24*time.Hour, cfg.Licensing.IdempotencyTTL)
	assert.Equal(t, 5*time.Second, cfg.Licensing.StorageTimeout)
	assert.Equal(t, sharedConfig.EventTransportMemory, cfg.Events.Transport)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.GetAddr())
	assert.Same(t, cfg, Get())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("KEYGATE_SERVER_PORT", "9090")
	t.Setenv("KEYGATE_LICENSING_STORAGE_TIMEOUT", "2s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Licensing.StorageTimeout)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Licensing: sharedConfig.LicensingConfig{IdempotencyTTL: time.Hour, StorageTimeout: time.Second},
			Events:    sharedConfig.EventsConfig{Transport: sharedConfig.EventTransportMemory},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("unknown transport", func(t *testing.T) {
		cfg := base()
		cfg.Events.Transport = "carrier-pigeon"
		assert.Error(t, cfg.Validate())
	})

	t.Run("amqp without url", func(t *testing.T) {
		cfg := base()
		cfg.Events.Transport = sharedConfig.EventTransportAMQP
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero ttl", func(t *testing.T) {
		cfg := base()
		cfg.Licensing.IdempotencyTTL = 0
		assert.Error(t, cfg.Validate())
	})
}
