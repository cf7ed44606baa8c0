// Package cli implements the command-line chat and server entry points.
package cli

import (
	"fmt"
	"log/slog"

	backend "github.com/redis/go-redis/v9"

	voyago "github.com/voyago/voyago"
	"github.com/voyago/voyago/internal/config"
	"github.com/voyago/voyago/internal/dialogue"
	"github.com/voyago/voyago/pkg/adapters/file"
	"github.com/voyago/voyago/pkg/adapters/memory"
	redisadapter "github.com/voyago/voyago/pkg/adapters/redis"
	"github.com/voyago/voyago/pkg/ports"
)

// CreateEngine builds a voyago.Engine from the process configuration,
// selecting the persistence backend and optional distributed lock.
func CreateEngine(cfg config.Config, logger *slog.Logger, extra ...voyago.Option) (*voyago.Engine, error) {
	var store ports.ConversationStore
	var locker ports.DistributedLocker

	switch cfg.Store {
	case "memory":
		store = memory.NewStore()
	case "file", "":
		store = file.New(cfg.DataDir, file.WithRetention(cfg.BackupRetention))
	case "redis":
		client := backend.NewClient(&backend.Options{Addr: cfg.RedisAddr})
		store = redisadapter.NewStore(client, cfg.RedisPrefix)
		if cfg.DistributedLock {
			locker = redisadapter.NewLocker(client, cfg.RedisPrefix)
		}
	default:
		return nil, fmt.Errorf("unknown store backend %q (expected memory, file or redis)", cfg.Store)
	}

	flow := dialogue.DefaultConfig()
	if cfg.FlowConfig != "" {
		var err error
		flow, err = dialogue.LoadConfig(cfg.FlowConfig)
		if err != nil {
			return nil, fmt.Errorf("load flow config: %w", err)
		}
	}

	opts := []voyago.Option{
		voyago.WithStore(store),
		voyago.WithLogger(logger),
		voyago.WithConfig(flow),
	}
	if locker != nil {
		opts = append(opts, voyago.WithLocker(locker))
	}
	opts = append(opts, extra...)

	return voyago.New(opts...), nil
}
