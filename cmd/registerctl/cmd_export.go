package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/registers/internal/core"
	"github.com/JonMunkholm/registers/internal/report"
)

func newExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <actions|register>",
		Short: "Write a CSV backup of a collection",
		Long: `Write a CSV backup of a collection.

The file is named like the browser download (Actions_Backup_YYYY-MM-DD.csv)
unless -o is given. Use -o - for stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseCollection(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, func(ctx context.Context, s *session) error {
				if key == core.ActionsKey {
					return writeOutput(cmd, output, s.svc.ActionsExportFilename(), func(w io.Writer) error {
						return s.svc.WriteActionsCSV(ctx, w)
					})
				}
				return writeOutput(cmd, output, s.svc.RegisterExportFilename(), func(w io.Writer) error {
					return s.svc.WriteRegisterCSV(ctx, w)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, - for stdout")
	return cmd
}

type reportOptions struct {
	output   string
	status   string
	owner    string
	category string
	kind     string
	search   string
}

func newReportCmd() *cobra.Command {
	var opts reportOptions

	cmd := &cobra.Command{
		Use:   "report <actions|register>",
		Short: "Write the printable HTML report of a collection",
		Long: `Write the printable HTML report of a collection.

Filters select the cards; the summary tiles always cover every record.
A filter that matches nothing reports every record.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseCollection(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, func(ctx context.Context, s *session) error {
				ropts := report.Options{OrgName: s.cfg.Registers.OrgName, Now: s.svc.Now()}

				if key == core.ActionsKey {
					all, err := s.svc.Actions(ctx)
					if err != nil {
						return err
					}
					var filtered []core.ActionEntry
					f := core.ActionFilter{Status: opts.status, Owner: opts.owner, Category: opts.category, Search: opts.search}
					if !f.IsZero() {
						if filtered, err = s.svc.ListActions(ctx, f); err != nil {
							return err
						}
					}
					return writeOutput(cmd, opts.output, s.svc.ActionsReportFilename(), func(w io.Writer) error {
						return report.ActionsLog(ropts, all, filtered).Render(ctx, w)
					})
				}

				all, err := s.svc.RegisterEntries(ctx)
				if err != nil {
					return err
				}
				var filtered []core.RegisterEntry
				f := core.RegisterFilter{Type: opts.kind, Status: opts.status, Category: opts.category, Search: opts.search}
				if !f.IsZero() {
					if filtered, err = s.svc.ListRegister(ctx, f); err != nil {
						return err
					}
				}
				return writeOutput(cmd, opts.output, s.svc.RegisterReportFilename(), func(w io.Writer) error {
					return report.IdeasIssuesRegister(ropts, all, filtered).Render(ctx, w)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file, - for stdout")
	cmd.Flags().StringVar(&opts.status, "status", "", "Only records with this status")
	cmd.Flags().StringVar(&opts.owner, "owner", "", "Only actions with this owner")
	cmd.Flags().StringVar(&opts.category, "category", "", "Only records in this category")
	cmd.Flags().StringVar(&opts.kind, "type", "", "Only register entries of this type (Idea or Issue)")
	cmd.Flags().StringVar(&opts.search, "search", "", "Case-insensitive text match")
	return cmd
}

// writeOutput renders fully before touching the destination, so a failed
// export never leaves a partial file.
func writeOutput(cmd *cobra.Command, path, defaultName string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}

	if path == "-" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if path == "" {
		path = defaultName
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", path, buf.Len())
	return nil
}
