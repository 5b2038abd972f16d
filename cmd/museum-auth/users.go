package main

import (
	"fmt"

	config "github.com/I-Yanis-I/museum-app/internal/config/museum-auth"
	"github.com/I-Yanis-I/museum-app/internal/services/museum-auth/account"
	"github.com/spf13/cobra"
)

func usersCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage stored accounts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:     "set-role <email> <role>",
		Short:   "Change the role of an account, e.g. to bootstrap the first ADMIN",
		Args:    cobra.ExactArgs(2),
		Example: "  museum-auth users set-role curator@museum.example ADMIN",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger, err := initLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			st, err := initStores(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			uc := account.NewUseCase(account.Deps{Users: st.Users, Tx: st.Tx, Outbox: st.Outbox, Logger: logger})
			u, err := uc.AssignRole(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", u.Email, u.Role)
			return nil
		},
	})
	return cmd
}
