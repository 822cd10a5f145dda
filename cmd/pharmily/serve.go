package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func serveCmd(configFile *string) *cobra.Command {
	var withWorker bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configFile, withWorker)
		},
	}
	cmd.Flags().BoolVar(&withWorker, "with-worker", false, "Also run the outbox worker in this process")
	return cmd
}

func runServer(ctx context.Context, configFile string, withWorker bool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gin.SetMode(gin.ReleaseMode)

	a, err := bootstrap(ctx, configFile)
	if err != nil {
		return err
	}
	defer a.Close()

	if withWorker {
		broker, err := a.Broker(ctx)
		if err != nil {
			return err
		}
		defer broker.Close()

		go a.OutboxProcessor(broker).Start(ctx)
		go a.CleanupWorker().Start(ctx)
	}

	srv, err := a.Server()
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info().Msg("Server exited properly")
	return nil
}
