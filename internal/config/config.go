// Package config handles loading and validation of application configuration
// from environment variables. Supports .env files via godotenv.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port        int
	Environment string // "development" | "staging" | "production"

	// Database
	DatabaseURL string

	// Security
	JWTSecret      string
	AllowedOrigins []string
	RateLimitRPM   int

	// Redis (rate limiting)
	RedisURL string

	// AI collaborator (Groq's OpenAI-compatible API)
	GroqAPIKey       string
	GroqBaseURL      string
	GroqModel        string
	AITimeoutSeconds int

	// Evidence storage
	UploadDir       string
	EvidenceQuotaMB int

	// Seed NGO admin, created at startup when both are set
	AdminEmail        string
	AdminPasswordHash string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		Environment: getEnv("ENVIRONMENT", "development"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret:      getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"), ","),
		RateLimitRPM:   getEnvInt("RATE_LIMIT_RPM", 60),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),

		GroqAPIKey:       getEnv("GROQ_API_KEY", ""),
		GroqBaseURL:      getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqModel:        getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		AITimeoutSeconds: getEnvInt("AI_TIMEOUT_SECONDS", 20),

		UploadDir:       getEnv("UPLOAD_DIR", "./uploads"),
		EvidenceQuotaMB: getEnvInt("EVIDENCE_QUOTA_MB", 5),

		AdminEmail:        getEnv("ADMIN_EMAIL", ""),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
	}

	// Validate required fields in production
	if cfg.Environment == "production" {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required in production")
		}
		if cfg.JWTSecret == "dev-secret-change-in-production" {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY is required in production")
		}
	}

	return cfg, nil
}

// EvidenceQuotaBytes returns the per-case evidence quota in bytes.
func (c *Config) EvidenceQuotaBytes() int64 {
	return int64(c.EvidenceQuotaMB) << 20
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}
