package main

import (
	"fmt"

	"catalog-api/internal/database"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the schema and load the initial catalog",
	Long:  "Migrates the configured database and inserts the initial categories and products if the store is empty",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := database.Open(cmd.Context(), cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer store.Close()

		if err := store.Migrate(cmd.Context()); err != nil {
			return err
		}

		seeded, err := store.Seed(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to seed database: %w", err)
		}

		if seeded {
			fmt.Fprintln(cmd.OutOrStdout(), "catalog seeded")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "catalog already populated, nothing to do")
		}
		return nil
	},
}
