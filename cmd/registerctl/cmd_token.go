package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/registers/internal/auth"
)

type tokenOptions struct {
	name string
	role string
	ttl  time.Duration
}

func newTokenCmd() *cobra.Command {
	var opts tokenOptions

	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Issue a session token for API access",
		Long: `Issue a session token signed with SESSION_JWT_SECRET.

Send it as "Authorization: Bearer <token>" or in the registers_session cookie.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Security.SessionSecret == "" {
				return errors.New("SESSION_JWT_SECRET is not set")
			}

			ttl := cfg.Security.SessionTTL
			if opts.ttl > 0 {
				ttl = opts.ttl
			}
			token, err := auth.NewManager(cfg.Security.SessionSecret, cfg.Security.SessionIssuer, ttl).
				Issue(args[0], opts.name, opts.role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "Display name recorded as the actor of changes")
	cmd.Flags().StringVar(&opts.role, "role", "", "Role claim")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", 0, "Token lifetime (default SESSION_TTL)")
	return cmd
}
