package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func workerCmd(configFile *string) *cobra.Command {
	var healthPort int

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Publish outbox events and clean up old ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(cmd.Context(), *configFile, healthPort)
		},
	}
	cmd.Flags().IntVar(&healthPort, "health-port", 8081, "Port for the worker's health and metrics endpoints (0 disables)")
	return cmd
}

func runWorker(ctx context.Context, configFile string, healthPort int) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx, configFile)
	if err != nil {
		return err
	}
	defer a.Close()

	broker, err := a.Broker(ctx)
	if err != nil {
		return fmt.Errorf("failed to create broker: %w", err)
	}
	defer broker.Close()

	if healthPort > 0 {
		srv := healthServer(healthPort, a.DB.PingContext, a.Registry)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("Health check server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	go a.CleanupWorker().Start(ctx)

	// blocks until the signal context is cancelled
	a.OutboxProcessor(broker).Start(ctx)
	log.Info().Msg("Worker stopped")
	return nil
}

func healthServer(port int, ping func(context.Context) error, gatherer prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
