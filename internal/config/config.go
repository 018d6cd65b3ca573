package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config carries process configuration read from the environment.
type Config struct {
	Addr       string
	PgDSN      string
	AuthSecret string
	AdminEmail string

	RateLimitRPS   float64
	RateLimitBurst int

	ShutdownTimeout time.Duration
}

// FromEnv reads configuration from NICEBLOG_* environment variables,
// applying defaults for everything except the token secret.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:            envOr("NICEBLOG_ADDR", ":8080"),
		PgDSN:           os.Getenv("NICEBLOG_PG_DSN"),
		AuthSecret:      os.Getenv("NICEBLOG_AUTH_SECRET"),
		AdminEmail:      os.Getenv("NICEBLOG_ADMIN"),
		RateLimitRPS:    envFloatOr("NICEBLOG_RATE_RPS", 20),
		RateLimitBurst:  envIntOr("NICEBLOG_RATE_BURST", 40),
		ShutdownTimeout: 10 * time.Second,
	}
	if cfg.AuthSecret == "" {
		return Config{}, errors.New("NICEBLOG_AUTH_SECRET is required")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
