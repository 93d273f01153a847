package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Lock store configuration
	LockBackend string // "redis" or "memory"
	LockTTL     time.Duration

	// Reaper configuration
	ReaperInterval time.Duration

	// Booking policy defaults (facility records may override)
	MinNoticeMinutes         int
	MaxAdvanceDays           int
	DefaultCancellationHours int
	DefaultSlotBuffer        int

	// PubNub configuration (lifecycle event fan-out)
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Staff/bot API key (bcrypt hash)
	StaffAPIKeyHash string

	// Rate limiting
	LockRateLimit  int
	LockRateWindow time.Duration

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// Locks
		LockBackend: getEnv("LOCK_BACKEND", "redis"),
		LockTTL:     getEnvAsDuration("LOCK_TTL", "300s"),

		// Reaper
		ReaperInterval: getEnvAsDuration("REAPER_INTERVAL", "30s"),

		// Booking policy
		MinNoticeMinutes:         getEnvAsInt("MIN_NOTICE_MINUTES", 30),
		MaxAdvanceDays:           getEnvAsInt("MAX_ADVANCE_DAYS", 30),
		DefaultCancellationHours: getEnvAsInt("DEFAULT_CANCELLATION_HOURS", 24),
		DefaultSlotBuffer:        getEnvAsInt("DEFAULT_SLOT_BUFFER_MINUTES", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		// Staff/bot access
		StaffAPIKeyHash: getEnv("STAFF_API_KEY_HASH", ""),

		// Rate limiting
		LockRateLimit:  getEnvAsInt("LOCK_RATE_LIMIT", 30),
		LockRateWindow: getEnvAsDuration("LOCK_RATE_WINDOW", "1m"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
