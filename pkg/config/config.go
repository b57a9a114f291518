package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                string
	DatabaseURL         string
	JWTSecret           string
	GoogleClientID      string
	GoogleClientSecret  string
	GoogleRedirectURI   string
	ForceRefreshHorizon time.Duration
}

// DefaultForceRefreshDays is the conservative window after which a stored
// credential is refreshed regardless of access-token validity, so the
// provider never sees the refresh token go unused long enough to lapse.
const DefaultForceRefreshDays = 90

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	horizonDays := DefaultForceRefreshDays
	if days := os.Getenv("FORCE_REFRESH_DAYS"); days != "" {
		if parsed, err := strconv.Atoi(days); err == nil && parsed > 0 {
			horizonDays = parsed
		}
	}

	return &Config{
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=appointments port=5432 sslmode=disable"),
		JWTSecret:           getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		GoogleClientID:      getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:  getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:   getEnv("GOOGLE_REDIRECT_URI", "http://localhost:8080/api/external-calendar/google/code"),
		ForceRefreshHorizon: time.Duration(horizonDays) * 24 * time.Hour,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
