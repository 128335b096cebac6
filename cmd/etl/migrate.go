package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/database"
	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/store"
)

func newMigrateCmd(a *app) *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := store.Connect(ctx, a.cfg.Database)
			if err != nil {
				return withCode(exitDB, err)
			}
			defer pool.Close()

			var version int64
			if status {
				version, err = database.SchemaVersion(ctx, pool)
			} else {
				version, err = database.Migrate(ctx, pool)
			}
			if err != nil {
				return withCode(exitDB, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "Only print the current schema version")
	return cmd
}
