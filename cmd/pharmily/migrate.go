package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func migrateCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database tables if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			// opening the app applies the schema
			a, err := bootstrap(cmd.Context(), *configFile)
			if err != nil {
				return err
			}
			defer a.Close()

			log.Info().
				Str("driver", a.Config.Database.Driver).
				Msg("Database schema is up to date")
			return nil
		},
	}
}
