package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newSeedRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-rules",
		Short: "Add the constitution rules to the actions log",
		Long: `Add the constitution rules to the actions log as Done actions.

Rules already present by title are skipped, so running this twice is safe.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				added, err := s.svc.SeedConstitutionRules(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, r := range added {
					fmt.Fprintf(out, "ACT-%03d %s\n", r.Num, r.Action)
				}
				fmt.Fprintf(out, "added %d constitution rule(s)\n", len(added))
				return nil
			})
		},
	}
}
