package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/registers/internal/store"
)

func newMigrateCmd() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			db, err := store.Open(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			out := cmd.OutOrStdout()
			if status {
				states, err := db.MigrationStatus(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "VERSION\tSTATE\tFILE")
				for _, st := range states {
					state := "pending"
					if st.Applied {
						state = "applied"
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\n", st.Version, state, st.File)
				}
				return tw.Flush()
			}

			n, err := db.Migrate(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "applied %d migration(s) to %s store\n", n, db.Driver)
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "List migrations and whether each is applied")
	return cmd
}
