package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the API process
type Config struct {
	Port        string
	GinMode     string
	LogLevel    string
	AppBaseURL  string
	JWTSecret   string
	CORSOrigins []string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	DBStatementTimeout time.Duration

	RedisURL string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	KafkaBrokers []string
	KafkaTopic   string

	Outbox OutboxConfig
}

// OutboxConfig tunes the deferred side-effect worker
type OutboxConfig struct {
	PollInterval  time.Duration
	BatchSize     int
	LeaseTTL      time.Duration
	MaxAttempts   int
	RetryBackoff  time.Duration
	RetryMaxDelay time.Duration
}

// Load reads configs/.env when present, then the process environment
func Load() Config {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}
	return FromEnv()
}

// FromEnv builds a Config from the environment only
func FromEnv() Config {
	return Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		AppBaseURL:  getEnv("APP_BASE_URL", "http://localhost:3000"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "postgres"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		DBStatementTimeout: getDuration("DB_STATEMENT_TIMEOUT", 5*time.Second),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getInt("SMTP_PORT", 465),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnv("SMTP_FROM", "partners@localhost"),

		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "partner-events"),

		Outbox: OutboxConfig{
			PollInterval:  getDuration("OUTBOX_POLL_INTERVAL", 2*time.Second),
			BatchSize:     getInt("OUTBOX_BATCH_SIZE", 20),
			LeaseTTL:      getDuration("OUTBOX_LEASE_TTL", 30*time.Second),
			MaxAttempts:   getInt("OUTBOX_MAX_ATTEMPTS", 8),
			RetryBackoff:  getDuration("OUTBOX_RETRY_BACKOFF", time.Second),
			RetryMaxDelay: getDuration("OUTBOX_RETRY_MAX_DELAY", 5*time.Minute),
		},
	}
}

// DSN returns the postgres connection URL
func (c Config) DSN() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=" + c.DBSSLMode
}

// Secret returns the JWT signing key. Release mode refuses the development fallback.
func (c Config) Secret() []byte {
	if c.JWTSecret == "" {
		if c.GinMode == "release" {
			panic("FATAL: JWT_SECRET environment variable is required in production mode")
		}
		return []byte("default_super_secret_key")
	}
	return []byte(c.JWTSecret)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
