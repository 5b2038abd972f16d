package main

import (
	"fmt"

	config "github.com/I-Yanis-I/museum-app/internal/config/museum-auth"
	pg "github.com/I-Yanis-I/museum-app/internal/repository/postgres"
	"github.com/spf13/cobra"
)

func migrateCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect the database schema",
	}
	for _, sub := range []struct{ use, short string }{
		{"up", "Apply all pending migrations"},
		{"down", "Roll back the latest migration"},
		{"status", "Print the migration status"},
	} {
		command := sub.use
		cmd.AddCommand(&cobra.Command{
			Use:   command,
			Short: sub.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := config.Load(*configPath)
				if err != nil {
					return err
				}
				if cfg.DB.Driver != config.DriverPostgres {
					return fmt.Errorf("migrate needs db.driver=%s, got %s", config.DriverPostgres, cfg.DB.Driver)
				}
				if err := pg.Migrate(cmd.Context(), cfg.DB.DSN, command); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "migrations: %s OK\n", command)
				return nil
			},
		})
	}
	return cmd
}
