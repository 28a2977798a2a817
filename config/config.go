package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries everything main needs to boot, sourced from the
// environment and optionally seeded from a .env file.
type Config struct {
	Addr       string
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string
	JWTSecret  string
	LogLevel   string

	// RequireEmailConfirmation makes signup withhold the session token until
	// the address is confirmed, mirroring hosted auth providers.
	RequireEmailConfirmation bool
}

func Load() (Config, error) {
	// Missing .env is fine; the OS environment is used as-is.
	_ = godotenv.Load()

	cfg := Config{
		Addr:                     getenv("ADDR", ":8080"),
		DBUser:                   strings.TrimSpace(os.Getenv("user")),
		DBPassword:               strings.TrimSpace(os.Getenv("password")),
		DBHost:                   strings.TrimSpace(os.Getenv("host")),
		DBPort:                   strings.TrimSpace(os.Getenv("port")),
		DBName:                   strings.TrimSpace(os.Getenv("dbname")),
		JWTSecret:                os.Getenv("JWT_SECRET"),
		LogLevel:                 getenv("LOG_LEVEL", "info"),
		RequireEmailConfirmation: os.Getenv("REQUIRE_EMAIL_CONFIRMATION") == "true",
	}

	if cfg.JWTSecret == "" {
		return cfg, errors.New("JWT_SECRET environment variable not set")
	}
	return cfg, nil
}

func (c Config) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=require",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
