// Package config loads process configuration from the environment, with
// optional .env file support for local development.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config is the process configuration for the server and CLI.
type Config struct {
	// ListenAddr is the HTTP bind address.
	ListenAddr string `env:"VOYAGO_LISTEN_ADDR" envDefault:":8080"`

	// Store selects the persistence backend: memory, file or redis.
	Store string `env:"VOYAGO_STORE" envDefault:"file"`

	// DataDir is the snapshot directory for the file store.
	DataDir string `env:"VOYAGO_DATA_DIR" envDefault:".voyago/conversations"`

	// BackupRetention bounds the per-conversation backup count.
	BackupRetention int `env:"VOYAGO_BACKUP_RETENTION" envDefault:"5"`

	// RedisAddr and RedisPrefix configure the redis store and locker.
	RedisAddr   string `env:"VOYAGO_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPrefix string `env:"VOYAGO_REDIS_PREFIX" envDefault:"voyago:"`

	// DistributedLock enables the redis lock around each turn; only
	// meaningful with the redis store.
	DistributedLock bool `env:"VOYAGO_DISTRIBUTED_LOCK" envDefault:"false"`

	// FlowConfig is an optional YAML file overriding questions, phrase
	// sets and slot priority.
	FlowConfig string `env:"VOYAGO_FLOW_CONFIG"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `env:"VOYAGO_LOG_LEVEL" envDefault:"info"`
}

// Load reads the environment into a Config. A .env file in the working
// directory is applied first when present; a missing file is not an
// error.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
