package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/registers/internal/core"
	"github.com/JonMunkholm/registers/internal/inbox"
)

func newImportDirCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "import-dir [root]",
		Short: "Import every CSV waiting in an inbox directory",
		Long: `Import every CSV under <root>/actions and <root>/register.

Imported files move to an Uploaded subdirectory. Files that fail move to
Failed with a note explaining why. root defaults to REGISTERS_INBOX_DIR.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			importMode, err := core.ParseImportMode(mode)
			if err != nil {
				return err
			}
			return withSession(cmd, func(ctx context.Context, s *session) error {
				root := s.cfg.Registers.InboxDir
				if len(args) == 1 {
					root = args[0]
				}
				if root == "" {
					return errors.New("no inbox directory: pass one or set REGISTERS_INBOX_DIR")
				}

				im := inbox.New(s.svc, root)
				im.Mode = importMode

				results, err := im.Run(ctx)
				var failed int
				out := cmd.OutOrStdout()
				for _, r := range results {
					name := filepath.Base(r.File)
					switch {
					case r.Deferred:
						fmt.Fprintf(out, "%s %s: deferred (%v)\n", r.Collection, name, r.Err)
					case r.OK():
						fmt.Fprintf(out, "%s %s: %d rows, %d written\n", r.Collection, name, r.Result.Rows, r.Result.Written)
					default:
						failed++
						fmt.Fprintf(out, "%s %s: failed: %v\n", r.Collection, name, r.Err)
					}
				}
				if len(results) == 0 {
					fmt.Fprintln(out, "inbox is empty")
				}
				if err != nil {
					return err
				}
				if failed > 0 {
					return fmt.Errorf("%d file(s) failed to import", failed)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(core.ImportMerge), "Import mode: merge or replace")
	return cmd
}
