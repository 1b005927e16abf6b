// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// RedisConfig provides Redis connection settings for the idempotency guard.
type RedisConfig interface {
	GetRedisURL() string
	GetWebhookLockTTL() time.Duration
}

// SchedulerConfig provides settings for the asynq scheduler client and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// ProviderConfig provides settings for the outbound calling provider client.
type ProviderConfig interface {
	GetProviderBaseURL() string
	GetProviderAPIKey() string
	GetDialsPerSecond() float64
}

// AIConfig provides settings for the transcript classifier.
type AIConfig interface {
	GetGeminiAPIKey() string
	GetGeminiModel() string
	IsClassifierEnabled() bool
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// CampaignConfig provides campaign scheduling settings.
type CampaignConfig interface {
	GetCampaignTimezone() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env              string
	HTTPAddr         string
	DatabaseURL      string
	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int
	WebhookLockTTL   time.Duration
	CampaignTimezone string
	ProviderBaseURL  string
	ProviderAPIKey   string
	DialsPerSecond   float64
	GeminiAPIKey     string
	GeminiModel      string
	CORSAllowAll     bool
	CORSOrigins      []string
}

// Load reads configuration from the environment, with an optional .env file.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Env:              getEnv("APP_ENV", "development"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		RedisTLSInsecure: getEnvBool("REDIS_TLS_INSECURE", false),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "campaigns"),
		AsynqConcurrency: getEnvInt("ASYNQ_CONCURRENCY", 10),
		WebhookLockTTL:   getEnvDuration("WEBHOOK_LOCK_TTL", 5*time.Minute),
		CampaignTimezone: getEnv("CAMPAIGN_TIMEZONE", "America/Los_Angeles"),
		ProviderBaseURL:  getEnv("PROVIDER_BASE_URL", "https://api.retellai.com"),
		ProviderAPIKey:   os.Getenv("PROVIDER_API_KEY"),
		DialsPerSecond:   getEnvFloat("DIALS_PER_SECOND", 1.0),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		CORSAllowAll:     getEnvBool("CORS_ALLOW_ALL", true),
		CORSOrigins:      splitList(os.Getenv("CORS_ORIGINS")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) GetDatabaseURL() string           { return c.DatabaseURL }
func (c *Config) GetRedisURL() string              { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool        { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string        { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int         { return c.AsynqConcurrency }
func (c *Config) GetWebhookLockTTL() time.Duration { return c.WebhookLockTTL }
func (c *Config) GetCampaignTimezone() string      { return c.CampaignTimezone }
func (c *Config) GetProviderBaseURL() string       { return c.ProviderBaseURL }
func (c *Config) GetProviderAPIKey() string        { return c.ProviderAPIKey }
func (c *Config) GetDialsPerSecond() float64       { return c.DialsPerSecond }
func (c *Config) GetGeminiAPIKey() string          { return c.GeminiAPIKey }
func (c *Config) GetGeminiModel() string           { return c.GeminiModel }
func (c *Config) IsClassifierEnabled() bool        { return c.GeminiAPIKey != "" }
func (c *Config) GetHTTPAddr() string              { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool            { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string         { return c.CORSOrigins }

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
