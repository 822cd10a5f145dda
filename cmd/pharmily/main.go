package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pharmily/pharmily-api/internal/app"
	"github.com/pharmily/pharmily-api/internal/config"
	"github.com/pharmily/pharmily-api/pkg/logger"
)

func main() {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "pharmily",
		Short:         "Pharmily clinic API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file (default: ./config/config.yml)")

	rootCmd.AddCommand(serveCmd(&configFile))
	rootCmd.AddCommand(migrateCmd(&configFile))
	rootCmd.AddCommand(workerCmd(&configFile))

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// bootstrap loads the config, installs the global logger and opens the app.
func bootstrap(ctx context.Context, configFile string) (*app.App, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, err
	}

	l := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		JSON:       cfg.Log.JSON,
	})
	log.Logger = *l.Zerolog()

	return app.New(ctx, cfg, l)
}
