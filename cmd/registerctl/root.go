package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/registers/internal/config"
	"github.com/JonMunkholm/registers/internal/core"
	"github.com/JonMunkholm/registers/internal/logging"
	"github.com/JonMunkholm/registers/internal/store"
)

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "registerctl",
		Short:         "Manage the Actions & Decisions log and the Ideas & Issues register",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnv(envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load; a missing file is ignored")

	root.AddCommand(
		newMigrateCmd(),
		newImportCmd(),
		newImportDirCmd(),
		newExportCmd(),
		newReportCmd(),
		newSeedRulesCmd(),
		newResetCmd(),
		newTokenCmd(),
	)
	return root
}

// loadEnv loads path without overriding variables already set.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// loadConfig loads configuration and sends logs to stderr so stdout stays
// usable for exports.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

// session is an open store with a service over it.
type session struct {
	cfg *config.Config
	db  *store.DB
	svc *core.Service
}

// openSession opens the configured store and applies migrations when
// DB_AUTO_MIGRATE is set.
func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()

	db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if _, err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}

	svc, err := core.NewService(db.Store, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &session{cfg: cfg, db: db, svc: svc}, nil
}

func (s *session) Close() { s.db.Close() }

// withSession runs fn against an open session.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(cmd.Context(), s)
}

// parseCollection accepts the short names used on the command line as well
// as the collection keys.
func parseCollection(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "actions", "action", core.ActionsKey:
		return core.ActionsKey, nil
	case "register", "ideas", "issues", core.RegisterKey:
		return core.RegisterKey, nil
	}
	return "", fmt.Errorf("%w: %q (use actions or register)", core.ErrUnknownCollection, name)
}
