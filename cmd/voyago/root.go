package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	voyago "github.com/voyago/voyago"
	"github.com/voyago/voyago/internal/cli"
	"github.com/voyago/voyago/internal/config"
	"github.com/voyago/voyago/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "voyago",
	Short: "Voyago is a slot-filling travel planning assistant",
	Long:  `Voyago runs multi-turn travel planning conversations: it extracts trip details from free text, confirms them one at a time, and persists every conversation so it survives restarts.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands). Each one overrides
	// the matching VOYAGO_* environment variable when set.
	rootCmd.PersistentFlags().String("store", "", "Persistence backend: memory, file or redis")
	rootCmd.PersistentFlags().String("data-dir", "", "Snapshot directory for the file store")
	rootCmd.PersistentFlags().String("redis-addr", "", "Redis address for the redis store")
	rootCmd.PersistentFlags().String("flow-config", "", "YAML file overriding questions and slot priority")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
}

// loadConfig reads the environment configuration and applies any
// persistent flags the user set on top of it.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	if v, _ := cmd.Flags().GetString("store"); v != "" {
		cfg.Store = v
	}
	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v, _ := cmd.Flags().GetString("redis-addr"); v != "" {
		cfg.RedisAddr = v
	}
	if v, _ := cmd.Flags().GetString("flow-config"); v != "" {
		cfg.FlowConfig = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	return cfg, nil
}

// buildEngine assembles the engine from flags and environment.
func buildEngine(cmd *cobra.Command, extra ...voyago.Option) (*voyago.Engine, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger := logging.New(logging.ParseLevel(cfg.LogLevel))
	return cli.CreateEngine(cfg, logger, extra...)
}
