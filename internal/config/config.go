package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the process's runtime options, read from the environment.
// Missing required options cause fail-fast startup.
type Config struct {
	Port        int
	DatabaseURL string
	JWTSecret   string
	NodeEnv     string
	RedisURL    string // optional: enables the Redis-backed Broadcaster when set
}

func Load() (Config, error) {
	port := 3000
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		port = p
	}

	nodeEnv := os.Getenv("NODE_ENV")
	if nodeEnv == "" {
		nodeEnv = "dev"
	}

	cfg := Config{
		Port:        port,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		NodeEnv:     nodeEnv,
		RedisURL:    os.Getenv("REDIS_URL"),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}
