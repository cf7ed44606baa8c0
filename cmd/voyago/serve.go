package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	voyago "github.com/voyago/voyago"
	"github.com/voyago/voyago/internal/cli"
	"github.com/voyago/voyago/internal/logging"
	"github.com/voyago/voyago/internal/metrics"
	httpadapter "github.com/voyago/voyago/pkg/adapters/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts the planning engine in server mode, exposing a JSON API with SSE turn streaming and Prometheus metrics over HTTP.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.ListenAddr = addr
		}

		logger := logging.New(logging.ParseLevel(cfg.LogLevel))
		registry := prometheus.NewRegistry()

		engine, err := cli.CreateEngine(cfg, logger, voyago.WithMetrics(metrics.New(registry)))
		if err != nil {
			fmt.Printf("Error initializing voyago: %v\n", err)
			os.Exit(1)
		}

		handler := httpadapter.NewHandler(engine,
			httpadapter.WithLogger(logger),
			httpadapter.WithMetricsRegistry(registry),
		)

		srv := &http.Server{
			Addr:    cfg.ListenAddr,
			Handler: handler,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("starting voyago server", "addr", srv.Addr, "store", cfg.Store)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			logger.Info("shutting down", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					logger.Error("error killing server", "err", err)
				}
			}
			logger.Info("server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "HTTP bind address (overrides VOYAGO_LISTEN_ADDR)")
}
