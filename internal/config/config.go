package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	ServerPort string
	Debug      bool

	// Change-assistant backend
	BackendURL          string
	BackendTimeout      time.Duration
	BackendClientID     string
	BackendClientSecret string
	BackendTokenURL     string
	DemoUserID          string

	// Preferences database
	DatabaseType   string
	DatabasePath   string
	DatabaseURL    string
	MigrationsPath string

	StaticFilesPath string

	AppSecret       string
	SessionDuration time.Duration
	HandoffTTL      time.Duration
	// GameIdleTimeout ends game sessions and draft flows nobody touched
	GameIdleTimeout time.Duration
	// GenerateRateLimit is the number of generation requests per visitor per minute
	GenerateRateLimit int

	// Optional Redis handoff store
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Optional SES delivery of approved drafts
	SESRegion    string
	SESFromEmail string
	SESFromName  string

	StageRulesPath string
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		ServerPort:          getEnv("PORT", "8080"),
		Debug:               getEnvBool("DEBUG", false),
		BackendURL:          getEnv("BACKEND_URL", "http://localhost:8000"),
		BackendTimeout:      getEnvDuration("BACKEND_TIMEOUT", 60*time.Second),
		BackendClientID:     getEnv("BACKEND_CLIENT_ID", ""),
		BackendClientSecret: getEnv("BACKEND_CLIENT_SECRET", ""),
		BackendTokenURL:     getEnv("BACKEND_TOKEN_URL", ""),
		DemoUserID:          getEnv("DEMO_USER_ID", "user123"),
		DatabaseType:        getEnv("DB_TYPE", "sqlite"),
		DatabasePath:        getEnv("DB_PATH", "./changekit.db"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		MigrationsPath:      getEnv("MIGRATIONS_PATH", "./migrations"),
		StaticFilesPath:     getEnv("STATIC_PATH", "./static"),
		AppSecret:           getEnv("APP_SECRET", "change-me-in-production"),
		SessionDuration:     getEnvDuration("SESSION_DURATION", 24*time.Hour),
		HandoffTTL:          getEnvDuration("HANDOFF_TTL", 15*time.Minute),
		GameIdleTimeout:     getEnvDuration("GAME_IDLE_TIMEOUT", 30*time.Minute),
		GenerateRateLimit:   getEnvInt("GENERATE_RATE_LIMIT", 20),
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		SESRegion:           getEnv("SES_REGION", "us-east-1"),
		SESFromEmail:        getEnv("SES_FROM_EMAIL", ""),
		SESFromName:         getEnv("SES_FROM_NAME", "Change Communications"),
		StageRulesPath:      getEnv("STAGE_RULES_PATH", ""),
	}
}

// BackendAuthEnabled reports whether client-credentials auth is configured for the backend
func (c *Config) BackendAuthEnabled() bool {
	return c.BackendClientID != "" && c.BackendClientSecret != "" && c.BackendTokenURL != ""
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
