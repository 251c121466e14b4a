package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	App       AppConfig
	Scheduler SchedulerConfig
	Workflow  WorkflowConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host         string
	Port         string
	TimeoutRead  time.Duration
	TimeoutWrite time.Duration
	TimeoutIdle  time.Duration
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Host             string
	Port             string
	User             string
	Password         string
	Name             string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	StatementTimeout time.Duration
	MigrationsPath   string
}

// JWTConfig holds the settings for validating caller tokens
type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
}

// AppConfig holds general application configuration
type AppConfig struct {
	Env       string
	Name      string
	Version   string
	LogLevel  string
	LogFormat string
}

// SchedulerConfig controls the background jobs
type SchedulerConfig struct {
	Enabled                 bool
	ClarificationDigestCron string
	DraftPurgeCron          string
	StaleClarificationAfter time.Duration
	DraftRetention          time.Duration
}

// WorkflowConfig holds the listing and scoring knobs
type WorkflowConfig struct {
	DefaultPageLimit int
	MaxPageLimit     int
	// LiveNegativeFlags reads negative flags from the parameter catalog at query time
	// instead of the value stored on the application.
	LiveNegativeFlags bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "localhost"),
			Port:         getEnv("SERVER_PORT", "8080"),
			TimeoutRead:  getDurationEnv("SERVER_TIMEOUT_READ", 15*time.Second),
			TimeoutWrite: getDurationEnv("SERVER_TIMEOUT_WRITE", 15*time.Second),
			TimeoutIdle:  getDurationEnv("SERVER_TIMEOUT_IDLE", 60*time.Second),
		},
		Database: DatabaseConfig{
			Host:             getEnv("DB_HOST", "localhost"),
			Port:             getEnv("DB_PORT", "5432"),
			User:             getEnv("DB_USER", "awards"),
			Password:         getEnv("DB_PASSWORD", ""),
			Name:             getEnv("DB_NAME", "awards_db"),
			SSLMode:          getEnv("DB_SSLMODE", "prefer"),
			MaxOpenConns:     getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getDurationEnv("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			StatementTimeout: getDurationEnv("DB_STATEMENT_TIMEOUT", 10*time.Second),
			MigrationsPath:   getEnv("DB_MIGRATIONS_PATH", "migrations"),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			Issuer:     getEnv("JWT_ISSUER", "award-review"),
			Expiration: getDurationEnv("JWT_EXPIRATION", 12*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins:   getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			AllowedMethods:   getSliceEnv("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders:   getSliceEnv("CORS_ALLOWED_HEADERS", []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"}),
			ExposedHeaders:   getSliceEnv("CORS_EXPOSED_HEADERS", []string{"X-Request-ID"}),
			AllowCredentials: getBoolEnv("CORS_ALLOW_CREDENTIALS", true),
			MaxAge:           getIntEnv("CORS_MAX_AGE", 300),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getBoolEnv("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: getFloatEnv("RATE_LIMIT_RPS", 20),
			Burst:             getIntEnv("RATE_LIMIT_BURST", 40),
		},
		App: AppConfig{
			Env:       getEnv("APP_ENV", "development"),
			Name:      getEnv("APP_NAME", "AwardReview"),
			Version:   getEnv("APP_VERSION", "1.0.0"),
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
		Scheduler: SchedulerConfig{
			Enabled:                 getBoolEnv("SCHEDULER_ENABLED", true),
			ClarificationDigestCron: getEnv("SCHEDULER_CLARIFICATION_DIGEST_CRON", "0 6 * * *"),
			DraftPurgeCron:          getEnv("SCHEDULER_DRAFT_PURGE_CRON", "30 2 * * *"),
			StaleClarificationAfter: getDurationEnv("SCHEDULER_STALE_CLARIFICATION_AFTER", 72*time.Hour),
			DraftRetention:          getDurationEnv("SCHEDULER_DRAFT_RETENTION", 90*24*time.Hour),
		},
		Workflow: WorkflowConfig{
			DefaultPageLimit:  getIntEnv("DEFAULT_PAGE_LIMIT", 10),
			MaxPageLimit:      getIntEnv("MAX_PAGE_LIMIT", 100),
			LiveNegativeFlags: getBoolEnv("SCORING_LIVE_NEGATIVE_FLAGS", true),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.JWT.Secret == "" && c.App.Env != "development" {
		return fmt.Errorf("JWT_SECRET is required outside development")
	}
	if c.Database.Password == "" && c.App.Env == "production" {
		return fmt.Errorf("DB_PASSWORD is required in production")
	}
	if c.Workflow.DefaultPageLimit < 1 || c.Workflow.MaxPageLimit < c.Workflow.DefaultPageLimit {
		return fmt.Errorf("invalid page limits: default %d, max %d", c.Workflow.DefaultPageLimit, c.Workflow.MaxPageLimit)
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst < 1) {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
