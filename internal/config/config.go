package config

import (
	"os"
	"time"
)

// Config holds all runtime settings. It is built once in main and passed
// down explicitly; no package reads the environment on its own.
type Config struct {
	Port      string
	MongoURI  string
	DBName    string
	JWTSecret string
	TokenTTL  time.Duration
}

// FromEnv reads configuration from environment variables with local-dev defaults.
func FromEnv() Config {
	cfg := Config{
		Port:      getEnv("PORT", "8080"),
		MongoURI:  getEnv("MONGO_URI", "mongodb://localhost:27017/auctionhub"),
		DBName:    getEnv("DB_NAME", "auctionhub"),
		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:  7 * 24 * time.Hour,
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
