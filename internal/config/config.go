package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port string
	Env  string

	// Storage. DATABASE_URL selects PostgreSQL; otherwise SQLite at
	// DatabasePath is used.
	DatabaseURL  string
	DatabasePath string

	// REDIS_URL selects the durable Redis job queue; empty falls back to the
	// in-process queue (development only).
	RedisURL string

	// Inference
	GeminiAPIKey     string
	GeminiModel      string
	InferenceTimeout time.Duration

	// Delay before the proactive greeting after a channel subscribe.
	GreetingDelay time.Duration
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
// In production, it panics on missing required variables.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		Env:              getEnv("ENV", "development"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DatabasePath:     getEnv("DATABASE_PATH", "./data/nosmoke.db"),
		RedisURL:         os.Getenv("REDIS_URL"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		InferenceTimeout: getDuration("INFERENCE_TIMEOUT", 15*time.Second),
		GreetingDelay:    getDuration("GREETING_DELAY", 500*time.Millisecond),
	}

	// In production, require the durable backends and a real model key
	if cfg.Env == "production" {
		if cfg.RedisURL == "" {
			panic("REDIS_URL is required in production")
		}
		if cfg.GeminiAPIKey == "" {
			panic("GEMINI_API_KEY is required in production")
		}
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	// Bare numbers are treated as seconds
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return defaultValue
}
