package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/registers/internal/core"
)

type importOptions struct {
	mode   string
	dryRun bool
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <actions|register> <file>",
		Short: "Import a CSV backup into a collection",
		Long: `Import a CSV backup into a collection.

Merge (the default) upserts rows by id and leaves other records alone.
Replace deletes every record first. Use "-" to read the file from stdin.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseCollection(args[0])
			if err != nil {
				return err
			}
			mode, err := core.ParseImportMode(opts.mode)
			if err != nil {
				return err
			}
			return withSession(cmd, func(ctx context.Context, s *session) error {
				data, err := readInput(cmd, s.svc, args[1])
				if err != nil {
					return err
				}
				return runImport(ctx, cmd.OutOrStdout(), s.svc, key, data, mode, opts.dryRun)
			})
		},
	}

	cmd.Flags().StringVar(&opts.mode, "mode", string(core.ImportMerge), "Import mode: merge or replace")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Show what the import would change without writing")
	return cmd
}

// readInput reads path, or stdin for "-", within the import size limit.
func readInput(cmd *cobra.Command, svc *core.Service, path string) ([]byte, error) {
	if path == "-" {
		return svc.ReadImportFile(cmd.InOrStdin())
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return svc.ReadImportFile(f)
}

func runImport(ctx context.Context, out io.Writer, svc *core.Service, key string, data []byte, mode core.ImportMode, dryRun bool) error {
	var (
		preview *core.PreviewResponse
		result  *core.ImportResult
		dropped int
		err     error
	)

	switch key {
	case core.ActionsKey:
		batch, perr := core.ParseActionsCSV(data)
		if perr != nil {
			return perr
		}
		dropped = batch.Dropped
		if dryRun {
			preview, err = svc.PreviewActionsImport(ctx, batch)
		} else {
			result, err = svc.ImportActions(ctx, batch, mode)
		}
	case core.RegisterKey:
		batch, perr := core.ParseRegisterCSV(data)
		if perr != nil {
			return perr
		}
		dropped = batch.Dropped
		if dryRun {
			preview, err = svc.PreviewRegisterImport(ctx, batch)
		} else {
			result, err = svc.ImportRegister(ctx, batch, mode)
		}
	}
	if err != nil {
		return err
	}

	if preview != nil {
		printPreview(out, preview, mode)
		return nil
	}

	fmt.Fprintf(out, "%s %s: %d rows, %d written", result.Collection, result.Mode, result.Rows, result.Written)
	if result.Duplicates > 0 {
		fmt.Fprintf(out, ", %d duplicate ids", result.Duplicates)
	}
	if dropped > 0 {
		fmt.Fprintf(out, ", %d blank rows skipped", dropped)
	}
	fmt.Fprintf(out, " (%dms)\n", result.DurationMs)
	return result.Err()
}

func printPreview(out io.Writer, p *core.PreviewResponse, mode core.ImportMode) {
	s := p.Summary
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "collection\t%s\n", p.Collection)
	fmt.Fprintf(tw, "rows\t%d\n", s.TotalRows)
	fmt.Fprintf(tw, "new\t%d\n", s.NewRows)
	fmt.Fprintf(tw, "updated\t%d\n", s.UpdateRows)
	fmt.Fprintf(tw, "unchanged\t%d\n", s.UnchangedRows)
	fmt.Fprintf(tw, "with warnings\t%d\n", s.WarningRows)
	fmt.Fprintf(tw, "duplicate ids\t%d\n", s.DuplicateInFile)
	fmt.Fprintf(tw, "blank rows skipped\t%d\n", s.DroppedRows)
	if mode == core.ImportReplace {
		fmt.Fprintf(tw, "removed by replace\t%d\n", s.NotInFile)
	}
	tw.Flush()

	for _, d := range p.UpdateDiffs {
		fmt.Fprintf(out, "line %d: %s changes %v\n", d.LineNumber, d.RowKey, d.Changed)
	}
	for _, w := range p.WarningSamples {
		for _, msg := range w.Warnings {
			fmt.Fprintf(out, "line %d: warning: %s\n", w.LineNumber, msg)
		}
	}
}
