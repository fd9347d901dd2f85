package main

import (
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Wait for the database and apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer sess.close()

			sess.logger.Printf("migrations applied database_target=%s migrations_path=%s", sess.cfg.DatabaseTarget, sess.cfg.MigrationsPath)
			return nil
		},
	}
}
