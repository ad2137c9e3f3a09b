package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Auth0
	Auth0Domain   string
	Auth0Audience string

	// Server
	Port               string
	CORSOrigins        []string
	Env                string
	RateLimitPerMinute int

	// Ledger
	Location            *time.Location
	StatusSweepInterval time.Duration

	// S3 Storage
	S3 S3Config

	// AMQP event feed
	AMQP AMQPConfig

	// First administrator, created at startup when the ledger has none
	Admin AdminConfig
}

// AdminConfig identifies the bootstrap administrator. An empty subject disables it.
type AdminConfig struct {
	AuthSubject string
	Email       string
	Name        string
}

// Enabled reports whether an administrator should be bootstrapped
func (a AdminConfig) Enabled() bool { return a.AuthSubject != "" }

// S3Config holds AWS S3 configuration for proof artifacts
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Optional: for MinIO/LocalStack local dev
}

// AMQPConfig holds the RabbitMQ event feed configuration. An empty URL disables the feed.
type AMQPConfig struct {
	URL      string
	Exchange string
}

// Enabled reports whether the AMQP feed is configured
func (a AMQPConfig) Enabled() bool { return a.URL != "" }

// Load reads the API server configuration from environment variables
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase reads configuration for tools that only need the ledger store
func LoadDatabase() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	loc, err := time.LoadLocation(getEnv("LEDGER_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("LEDGER_TIMEZONE: %w", err)
	}

	sweep, err := time.ParseDuration(getEnv("STATUS_SWEEP_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("STATUS_SWEEP_INTERVAL: %w", err)
	}

	rateLimit, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "120"))
	if err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_PER_MINUTE: %w", err)
	}

	return &Config{
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		Auth0Domain:         getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:       getEnv("AUTH0_AUDIENCE", ""),
		Port:                getEnv("PORT", "8080"),
		CORSOrigins:         splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		Env:                 getEnv("ENV", "development"),
		RateLimitPerMinute:  rateLimit,
		Location:            loc,
		StatusSweepInterval: sweep,
		S3: S3Config{
			Region:          getEnv("S3_REGION", "us-east-1"),
			Bucket:          getEnv("S3_BUCKET", "contribution-proofs"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""), // Empty = use AWS, set for MinIO/LocalStack
		},
		AMQP: AMQPConfig{
			URL:      getEnv("AMQP_URL", ""),
			Exchange: getEnv("AMQP_EXCHANGE", "ledger.events"),
		},
		Admin: AdminConfig{
			AuthSubject: getEnv("ADMIN_AUTH_SUBJECT", ""),
			Email:       getEnv("ADMIN_EMAIL", ""),
			Name:        getEnv("ADMIN_NAME", "Administrator"),
		},
	}, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth0Domain == "" {
		return fmt.Errorf("AUTH0_DOMAIN is required")
	}
	if c.Auth0Audience == "" {
		return fmt.Errorf("AUTH0_AUDIENCE is required")
	}
	if c.StatusSweepInterval < 0 {
		return fmt.Errorf("STATUS_SWEEP_INTERVAL cannot be negative")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.Admin.Enabled() && c.Admin.Email == "" {
		return fmt.Errorf("ADMIN_EMAIL is required when ADMIN_AUTH_SUBJECT is set")
	}
	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
