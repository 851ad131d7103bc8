package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/contextcraft/contextcraft/pkg/resilience"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	Redis     RedisConfig     `json:"redis"`
	Providers ProvidersConfig `json:"providers"`
	Recovery  RecoveryConfig  `json:"recovery"`
	Logging   LoggingConfig   `json:"logging"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// RedisConfig contains Redis connection configuration for the shared
// response cache. Redis is optional; with Enabled=false the in-memory
// cache is used.
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

// ProvidersConfig names the AI providers the recovery layer routes between
type ProvidersConfig struct {
	Primary   string   `json:"primary"`
	Fallbacks []string `json:"fallbacks"`
	// SimulatedFailureRate drives the built-in simulated clients (demo mode)
	SimulatedFailureRate float64 `json:"simulated_failure_rate"`
	// SimulatedLatency is the base latency of the simulated clients
	SimulatedLatency time.Duration `json:"simulated_latency"`
}

// All returns the primary followed by the fallbacks
func (p ProvidersConfig) All() []string {
	return append([]string{p.Primary}, p.Fallbacks...)
}

// RecoveryConfig contains the error-recovery tuning knobs
type RecoveryConfig struct {
	MaxRetries       int           `json:"max_retries"`
	BaseDelay        time.Duration `json:"base_delay"`
	MaxDelay         time.Duration `json:"max_delay"`
	BreakerThreshold int           `json:"circuit_breaker_threshold"`
	BreakerCooldown  time.Duration `json:"circuit_breaker_cooldown"`
	EnableFallback   bool          `json:"enable_fallback"`
	EnableCaching    bool          `json:"enable_caching"`
	CacheTTL         time.Duration `json:"cache_ttl"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	Output string `json:"output"`
}

// Load loads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	defaults := resilience.DefaultRecoveryConfig()

	config := &Config{
		Server: ServerConfig{
			Host:         getEnvString("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Host:     getEnvString("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnvString("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 10),
		},
		Providers: ProvidersConfig{
			Primary:              getEnvString("PROVIDERS_PRIMARY", "openai"),
			Fallbacks:            getEnvStringSlice("PROVIDERS_FALLBACKS", []string{"anthropic", "gemini"}),
			SimulatedFailureRate: getEnvFloat("PROVIDERS_SIMULATED_FAILURE_RATE", 0.1),
			SimulatedLatency:     getEnvDuration("PROVIDERS_SIMULATED_LATENCY", 150*time.Millisecond),
		},
		Recovery: RecoveryConfig{
			MaxRetries:       getEnvInt("RECOVERY_MAX_RETRIES", defaults.MaxRetries),
			BaseDelay:        getEnvDuration("RECOVERY_BASE_DELAY", defaults.BaseDelay),
			MaxDelay:         getEnvDuration("RECOVERY_MAX_DELAY", defaults.MaxDelay),
			BreakerThreshold: getEnvInt("RECOVERY_CIRCUIT_BREAKER_THRESHOLD", defaults.BreakerThreshold),
			BreakerCooldown:  getEnvDuration("RECOVERY_CIRCUIT_BREAKER_COOLDOWN", defaults.BreakerCooldown),
			EnableFallback:   getEnvBool("RECOVERY_ENABLE_FALLBACK", defaults.EnableFallback),
			EnableCaching:    getEnvBool("RECOVERY_ENABLE_CACHING", defaults.EnableCaching),
			CacheTTL:         getEnvDuration("RECOVERY_CACHE_TTL", defaults.CacheTTL),
		},
		Logging: LoggingConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
			Output: getEnvString("LOG_OUTPUT", "stdout"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration. A missing provider list is a
// startup-time blocker, reported here rather than routed through the
// recovery machinery.
func (c *Config) Validate() error {
	if c.Providers.Primary == "" {
		return fmt.Errorf("no AI providers configured: PROVIDERS_PRIMARY is required")
	}

	if c.Recovery.MaxRetries < 0 {
		return fmt.Errorf("RECOVERY_MAX_RETRIES must not be negative")
	}

	if c.Recovery.BreakerThreshold <= 0 {
		return fmt.Errorf("RECOVERY_CIRCUIT_BREAKER_THRESHOLD must be positive")
	}

	return nil
}

// ToRecoveryConfig maps the env-derived values onto the resilience config
func (c *Config) ToRecoveryConfig() resilience.RecoveryConfig {
	config := resilience.DefaultRecoveryConfig()
	config.MaxRetries = c.Recovery.MaxRetries
	config.BaseDelay = c.Recovery.BaseDelay
	config.MaxDelay = c.Recovery.MaxDelay
	config.BreakerThreshold = c.Recovery.BreakerThreshold
	config.BreakerCooldown = c.Recovery.BreakerCooldown
	config.EnableFallback = c.Recovery.EnableFallback
	config.EnableCaching = c.Recovery.EnableCaching
	config.CacheTTL = c.Recovery.CacheTTL
	return config
}

// RedisAddr returns the host:port address of the Redis server
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions for environment variable parsing

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
