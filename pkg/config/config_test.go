package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "openai", cfg.Providers.Primary)
	assert.Equal(t, []string{"anthropic", "gemini"}, cfg.Providers.Fallbacks)
	assert.Equal(t, 3, cfg.Recovery.MaxRetries)
	assert.Equal(t, time.Second, cfg.Recovery.BaseDelay)
	assert.Equal(t, 5, cfg.Recovery.BreakerThreshold)
	assert.Equal(t, 60*time.Second, cfg.Recovery.BreakerCooldown)
	assert.True(t, cfg.Recovery.EnableFallback)
	assert.Equal(t, 5*time.Minute, cfg.Recovery.CacheTTL)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PROVIDERS_PRIMARY", "anthropic")
	t.Setenv("PROVIDERS_FALLBACKS", "openai, gemini ,")
	t.Setenv("RECOVERY_MAX_RETRIES", "5")
	t.Setenv("RECOVERY_BASE_DELAY", "250ms")
	t.Setenv("RECOVERY_ENABLE_CACHING", "false")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Providers.Primary)
	assert.Equal(t, []string{"openai", "gemini"}, cfg.Providers.Fallbacks)
	assert.Equal(t, []string{"anthropic", "openai", "gemini"}, cfg.Providers.All())
	assert.Equal(t, 5, cfg.Recovery.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Recovery.BaseDelay)
	assert.False(t, cfg.Recovery.EnableCaching)
	assert.Equal(t, "localhost:6380", cfg.RedisAddr())
}

func TestValidate_RequiresPrimaryProvider(t *testing.T) {
	t.Setenv("PROVIDERS_PRIMARY", "")

	cfg := &Config{}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no AI providers configured")
}

func TestValidate_RejectsBadRecoveryValues(t *testing.T) {
	cfg := &Config{
		Providers: ProvidersConfig{Primary: "openai"},
		Recovery:  RecoveryConfig{MaxRetries: -1, BreakerThreshold: 5},
	}
	assert.Error(t, cfg.Validate())

	cfg.Recovery.MaxRetries = 1
	cfg.Recovery.BreakerThreshold = 0
	assert.Error(t, cfg.Validate())
}

func TestToRecoveryConfig(t *testing.T) {
	cfg := &Config{
		Recovery: RecoveryConfig{
			MaxRetries:       2,
			BaseDelay:        100 * time.Millisecond,
			MaxDelay:         time.Second,
			BreakerThreshold: 4,
			BreakerCooldown:  30 * time.Second,
			EnableFallback:   true,
			EnableCaching:    true,
			CacheTTL:         time.Minute,
		},
	}

	rc := cfg.ToRecoveryConfig()
	assert.Equal(t, 2, rc.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, rc.BaseDelay)
	assert.Equal(t, 4, rc.BreakerThreshold)
	assert.Equal(t, time.Minute, rc.CacheTTL)
	// The default strategy ordering is preserved
	require.Len(t, rc.Strategies, 3)
}
