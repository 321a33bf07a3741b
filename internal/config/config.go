// Package config loads service configuration from the environment, with
// optional .env file support for local development.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every runtime setting for the sleuth service.
type Config struct {
	// ListenAddr is the address the websocket service binds to.
	ListenAddr string `env:"SLEUTH_LISTEN_ADDR" envDefault:":8080"`
	// DBPath is the sqlite database file path.
	DBPath string `env:"SLEUTH_DB_PATH" envDefault:"sleuth.db"`
	// RedisAddr enables the turn historian when non-empty.
	RedisAddr string `env:"SLEUTH_REDIS_ADDR"`
	// LogLevel is a logrus level name (debug, info, warn, error).
	LogLevel string `env:"SLEUTH_LOG_LEVEL" envDefault:"info"`
}

// Load reads .env if present, then parses the environment. A missing
// .env file is not an error; a malformed environment is.
func Load() (Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
