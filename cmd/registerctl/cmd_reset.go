package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/registers/internal/admin"
)

var errResetNotConfirmed = errors.New("reset deletes records; pass --yes to confirm")

func newResetCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset [actions|register]...",
		Short: "Delete every record in one or both collections",
		Long: `Delete every record in the named collections, or in all of them when
none are named. Export a backup first; this cannot be undone.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errResetNotConfirmed
			}
			keys := make([]string, 0, len(args))
			for _, a := range args {
				key, err := parseCollection(a)
				if err != nil {
					return err
				}
				keys = append(keys, key)
			}

			return withSession(cmd, func(ctx context.Context, s *session) error {
				r := &admin.Resetter{Service: s.svc}

				var (
					cleared []admin.Cleared
					err     error
				)
				if len(keys) == 0 {
					cleared, err = r.ResetAll(ctx)
				} else {
					cleared, err = r.Reset(ctx, keys...)
				}
				for _, c := range cleared {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: removed %d record(s)\n", c.Collection, c.Removed)
				}
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	return cmd
}
