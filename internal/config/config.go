// Package config loads and validates the gateway's environment
// configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds every knob the session gateway reads at startup.
type Config struct {
	Port string
	Host string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ConsulAddr  string
	ConsulToken string

	// IdentityServiceURL is the static fallback used when Consul discovery
	// is not available.
	IdentityServiceURL string

	// SessionInactivity overrides the default inactivity threshold when set
	// (e.g. for staging). Zero means the built-in default.
	SessionInactivity time.Duration

	FrontendOrigin string
	CookieSecure   bool
}

// Load reads the gateway configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               GetEnvOrDefault("GATEWAY_PORT", "8080"),
		Host:               GetEnvOrDefault("GATEWAY_HOST", "localhost"),
		RedisAddr:          GetEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		ConsulAddr:         GetEnvOrDefault("CONSUL_HTTP_ADDR", "localhost:8500"),
		ConsulToken:        os.Getenv("CONSUL_HTTP_TOKEN"),
		IdentityServiceURL: os.Getenv("IDENTITY_SERVICE_URL"),
		FrontendOrigin:     GetEnvOrDefault("FRONTEND_ORIGIN", "http://localhost:5173"),
		CookieSecure:       os.Getenv("APP_ENV") == "production",
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return nil, fmt.Errorf("invalid GATEWAY_PORT %q: %w", cfg.Port, err)
	}

	if raw := os.Getenv("REDIS_DB"); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", raw, err)
		}
		cfg.RedisDB = db
	}

	if raw := os.Getenv("SESSION_INACTIVITY"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_INACTIVITY %q: %w", raw, err)
		}
		cfg.SessionInactivity = d
	}

	return cfg, nil
}

// GetEnvOrDefault retrieves an environment variable or returns a default value
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
