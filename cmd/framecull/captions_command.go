package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"framecull/internal/captions"
	"framecull/internal/config"
)

func newCaptionsCommand(ctx *commandContext) *cobra.Command {
	captionsCmd := &cobra.Command{
		Use:   "captions",
		Short: "Maintain caption text files",
	}

	captionsCmd.AddCommand(newCaptionsCleanCommand(ctx))
	captionsCmd.AddCommand(newCaptionsReportCommand(ctx))
	captionsCmd.AddCommand(newCaptionsPruneCommand(ctx))

	return captionsCmd
}

func newCaptionsCleanCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var breakOut []string
	var deletions []string

	cmd := &cobra.Command{
		Use:   "clean <dir>",
		Short: "Normalize caption tag lists in place",
		Long: `Clean splits each caption line into fields, strips special characters,
deletes and breaks out the given phrases, and drops case-insensitive
duplicate tags.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			dir, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve directory: %w", err)
			}

			summary, err := captions.CleanDirectory(cmd.Context(), logger, captions.CleanOptions{
				Dir:       dir,
				BreakOut:  breakOut,
				Deletions: deletions,
				DryRun:    dryRun,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Files:   %d (changed %d, failed %d)\n", summary.Files, summary.Changed, summary.Failed)
			fmt.Fprintf(out, "Dry run: %s\n", yesNo(dryRun))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report changes without rewriting files")
	cmd.Flags().StringSliceVar(&breakOut, "phrases", nil, "Phrases to break out into separate tags")
	cmd.Flags().StringSliceVar(&deletions, "delete-phrases", nil, "Phrases to delete from tags")
	return cmd
}

func newCaptionsReportCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	var topN int

	cmd := &cobra.Command{
		Use:   "report <dir>",
		Short: "Report attribute frequency across caption files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve directory: %w", err)
			}

			report, err := captions.BuildReport(cmd.Context(), dir, cfg.Extraction.Workers)
			if err != nil {
				return err
			}

			sorted := report.Sorted()
			if topN > 0 && len(sorted) > topN {
				sorted = sorted[:topN]
			}
			rows := make([][]string, 0, len(sorted))
			for _, entry := range sorted {
				rows = append(rows, []string{
					entry.Attribute,
					fmt.Sprintf("%d", entry.Count),
					fmt.Sprintf("%.2f%%", report.Percentage(entry.Count)),
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total attributes: %d (unique %d)\n", report.Total, len(report.Counts))
			fmt.Fprintln(out, renderTable(
				[]string{"Attribute", "Count", "Share"},
				rows,
				2, 3,
			))

			if outputPath != "" {
				target, err := config.ExpandPath(outputPath)
				if err != nil {
					return fmt.Errorf("resolve output path: %w", err)
				}
				if err := os.WriteFile(target, []byte(report.Format()), 0o644); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				fmt.Fprintf(out, "Report saved to %s\n", target)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the full report to a file")
	cmd.Flags().IntVar(&topN, "top", 0, "Show only the N most popular attributes (0 = all)")
	return cmd
}

func newCaptionsPruneCommand(ctx *commandContext) *cobra.Command {
	var deleteIfFound bool
	var deleteIfNotFound bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "prune <dir> <keyword>...",
		Short: "Delete caption/image pairs by keyword",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if deleteIfFound == deleteIfNotFound {
				return fmt.Errorf("exactly one of --delete-if-found or --delete-if-not-found is required")
			}
			dir, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve directory: %w", err)
			}

			summary, err := captions.Prune(cmd.Context(), logger, captions.PruneOptions{
				Dir:           dir,
				Keywords:      args[1:],
				DeleteIfFound: deleteIfFound,
				DryRun:        dryRun,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Pairs:    %d (deleted %d, orphaned captions %d, failed %d)\n",
				summary.Pairs, summary.Deleted, summary.Orphaned, summary.Failed)
			fmt.Fprintf(out, "Dry run:  %s\n", yesNo(dryRun))
			return nil
		},
	}

	cmd.Flags().BoolVar(&deleteIfFound, "delete-if-found", false, "Delete pairs whose caption contains a keyword")
	cmd.Flags().BoolVar(&deleteIfNotFound, "delete-if-not-found", false, "Delete pairs whose caption contains no keyword")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report deletions without removing files")
	return cmd
}
