package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Typesense TypesenseConfig
	OpenAI    OpenAIConfig
	Chat      ChatConfig
	PII       PIIConfig
	Ingest    IngestConfig
	OTEL      OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds the incident archive database configuration
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
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	URL    string
	APIKey string
}

// OpenAIConfig holds OpenAI configuration
type OpenAIConfig struct {
	APIKey         string
	Model          string
	RateLimitRPM   int
	RateLimitBurst int
}

// ChatConfig holds conversation orchestration configuration
type ChatConfig struct {
	RetrievalTimeout   time.Duration
	GenerationTimeout  time.Duration
	MaxHistoryTurns    int
	ContextBudgetChars int
	SessionTTL         time.Duration
}

// PIIConfig holds the anonymization policy and audit log locations
type PIIConfig struct {
	PolicyPath string
	AuditPath  string
}

// IngestConfig holds bulk ingestion configuration
type IngestConfig struct {
	SourcePath string
	Workers    int
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
			Database: getEnv("DB_NAME", "incident_assistant"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Typesense: TypesenseConfig{
			URL:    getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey: getEnv("TYPESENSE_API_KEY", "xyz"),
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			Model:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			RateLimitRPM:   getEnvAsInt("OPENAI_RATE_LIMIT_RPM", 60),
			RateLimitBurst: getEnvAsInt("OPENAI_RATE_LIMIT_BURST", 5),
		},
		Chat: ChatConfig{
			RetrievalTimeout:   getEnvAsDuration("CHAT_RETRIEVAL_TIMEOUT", 10*time.Second),
			GenerationTimeout:  getEnvAsDuration("CHAT_GENERATION_TIMEOUT", 60*time.Second),
			MaxHistoryTurns:    getEnvAsInt("CHAT_MAX_HISTORY_TURNS", 20),
			ContextBudgetChars: getEnvAsInt("CHAT_CONTEXT_BUDGET_CHARS", 480000),
			SessionTTL:         getEnvAsDuration("CHAT_SESSION_TTL", 24*time.Hour),
		},
		PII: PIIConfig{
			PolicyPath: getEnv("PII_POLICY_PATH", "configs/pii_policy.json"),
			AuditPath:  getEnv("PII_AUDIT_PATH", "pii_audit.log"),
		},
		Ingest: IngestConfig{
			SourcePath: getEnv("INGEST_SOURCE_PATH", "Snow_Incidents.csv"),
			Workers:    getEnvAsInt("INGEST_WORKERS", 8),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "incident-assistant"),
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
