// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"snowid/internal/core/snowflake"
)

// Config holds all runtime settings of the snowid server.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// NodeID is this instance's slot in the fleet (0-63). Operators must keep
	// it unique per running process.
	NodeID int
	// WaitInterval between clock re-reads when a millisecond's sequence is
	// exhausted; zero busy-spins.
	WaitInterval time.Duration

	// JWTSecret enables bearer-token auth when set.
	JWTSecret string
	JWTIssuer string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables and validates it.
func Load() (Config, error) {
	cfg := Config{
		Port:      getEnv("APP_PORT", "8080"),
		Env:       getEnv("APP_ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTIssuer: getEnv("JWT_ISSUER", "snowid"),
	}

	var err error
	if cfg.NodeID, err = getEnvInt("NODE_ID", 1); err != nil {
		return Config{}, err
	}

	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"HTTP_READ_TIMEOUT", 15 * time.Second, &cfg.ReadTimeout},
		{"HTTP_WRITE_TIMEOUT", 30 * time.Second, &cfg.WriteTimeout},
		{"HTTP_IDLE_TIMEOUT", 60 * time.Second, &cfg.IdleTimeout},
		{"SHUTDOWN_TIMEOUT", 30 * time.Second, &cfg.ShutdownTimeout},
		{"ID_WAIT_INTERVAL", 0, &cfg.WaitInterval},
	}
	for _, d := range durations {
		if *d.dst, err = getEnvDuration(d.key, d.def); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.NodeID < 0 || c.NodeID > snowflake.MaxNodeID {
		return fmt.Errorf("NODE_ID must be in [0, %d], got %d", snowflake.MaxNodeID, c.NodeID)
	}
	if c.WaitInterval < 0 {
		return fmt.Errorf("ID_WAIT_INTERVAL must not be negative, got %s", c.WaitInterval)
	}
	if c.Port == "" {
		return fmt.Errorf("APP_PORT must not be empty")
	}
	return nil
}

// Development reports whether the service runs in development mode.
func (c Config) Development() bool {
	return c.Env == "development"
}

// AuthEnabled reports whether bearer tokens are required.
func (c Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// Allocator returns the allocator configuration derived from c.
func (c Config) Allocator() snowflake.Config {
	cfg := snowflake.DefaultConfig(c.NodeID)
	cfg.WaitInterval = c.WaitInterval
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", key, value)
	}
	return result, nil
}

// getEnvDuration requires a unit ("50us", "2s"); a bare number is an error.
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a duration", key, value)
	}
	return d, nil
}
