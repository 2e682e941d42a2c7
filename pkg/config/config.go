package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Report   ReportConfig
	Upstream UpstreamConfig
	OTEL     OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret      string
	InternalSecret string
}

// ReportConfig holds report generation configuration
type ReportConfig struct {
	StoragePath       string
	DownloadBaseURL   string
	EventsChannel     string
	EnrichmentWorkers int
	LookupCacheTTL    time.Duration
}

// UpstreamConfig holds base URLs for the upstream services
type UpstreamConfig struct {
	ScheduleURL string
	PatientURL  string
	DoctorURL   string
	UserURL     string
	SessionURL  string

	// Resilience settings shared by all upstream dependencies
	CallTimeout     time.Duration
	MaxAttempts     int
	BackoffBase     time.Duration
	BackoffMax      time.Duration
	FailureRatio    float64
	MinSamples      int
	CircuitCoolDown time.Duration
	CircuitWindow   time.Duration
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "report_service"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},
		Auth: AuthConfig{
			JWTSecret:      getEnv("JWT_SECRET", ""),
			InternalSecret: getEnv("INTERNAL_SECRET", ""),
		},
		Report: ReportConfig{
			StoragePath:       getEnv("REPORT_STORAGE_PATH", "/var/lib/report-service/reports"),
			DownloadBaseURL:   getEnv("REPORT_DOWNLOAD_BASE_URL", "http://localhost:8080"),
			EventsChannel:     getEnv("REPORT_EVENTS_CHANNEL", "report-events"),
			EnrichmentWorkers: getEnvAsInt("REPORT_ENRICHMENT_WORKERS", 8),
			LookupCacheTTL:    getEnvAsDuration("REPORT_LOOKUP_CACHE_TTL", 5*time.Minute),
		},
		Upstream: UpstreamConfig{
			ScheduleURL: getEnv("SCHEDULE_SERVICE_URL", "http://localhost:8081"),
			PatientURL:  getEnv("PATIENT_SERVICE_URL", "http://localhost:8082"),
			DoctorURL:   getEnv("DOCTOR_SERVICE_URL", "http://localhost:8083"),
			UserURL:     getEnv("USER_SERVICE_URL", "http://localhost:8084"),
			SessionURL:  getEnv("SESSION_SERVICE_URL", "http://localhost:8085"),

			CallTimeout:     getEnvAsDuration("UPSTREAM_CALL_TIMEOUT", 10*time.Second),
			MaxAttempts:     getEnvAsInt("UPSTREAM_MAX_ATTEMPTS", 3),
			BackoffBase:     getEnvAsDuration("UPSTREAM_BACKOFF_BASE", 200*time.Millisecond),
			BackoffMax:      getEnvAsDuration("UPSTREAM_BACKOFF_MAX", 5*time.Second),
			FailureRatio:    getEnvAsFloat("UPSTREAM_FAILURE_RATIO", 0.5),
			MinSamples:      getEnvAsInt("UPSTREAM_MIN_SAMPLES", 5),
			CircuitCoolDown: getEnvAsDuration("UPSTREAM_CIRCUIT_COOLDOWN", 30*time.Second),
			CircuitWindow:   getEnvAsDuration("UPSTREAM_CIRCUIT_WINDOW", 60*time.Second),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "report-service"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
