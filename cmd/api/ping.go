package main

import (
	"fmt"

	"catalog-api/internal/database"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check database connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := database.Open(cmd.Context(), cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("unable to connect to database: %w", err)
		}
		defer store.Close()

		if err := store.Ping(cmd.Context()); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "successfully connected to %s database\n", store.DB.Dialector.Name())
		return nil
	},
}
