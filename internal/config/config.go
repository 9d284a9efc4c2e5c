package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Frontend
	FrontendURL string

	// Review engine
	DefaultBatchSize int
	MaxBatchSize     int
	SchedulePolicy   string

	CatalogCacheTTL  time.Duration
	SubmitRateLimit  int
	ReminderInterval time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		Env:         getEnvOrDefault("ENV", "development"),
		DatabaseURL: mustGetEnv("DATABASE_URL"),
		RedisURL:    mustGetEnv("REDIS_URL"),
		JWTSecret:   mustGetEnv("JWT_SECRET"),
		FrontendURL: getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),

		DefaultBatchSize: getEnvAsIntOrDefault("DEFAULT_BATCH_SIZE", 6),
		MaxBatchSize:     getEnvAsIntOrDefault("MAX_BATCH_SIZE", 50),
		SchedulePolicy:   getEnvOrDefault("SCHEDULE_POLICY", "mastery_penalty"),

		CatalogCacheTTL:  getEnvAsDurationOrDefault("CATALOG_CACHE_TTL", 10*time.Minute),
		SubmitRateLimit:  getEnvAsIntOrDefault("SUBMIT_RATE_LIMIT", 60),
		ReminderInterval: getEnvAsDurationOrDefault("REMINDER_INTERVAL", time.Hour),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// getEnvAsDurationOrDefault accepts Go duration strings ("90s", "1h").
// Non-positive values fall back to the default.
func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
