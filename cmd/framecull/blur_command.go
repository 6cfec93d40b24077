package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"framecull/internal/config"
	"framecull/internal/snapshot"
)

func newBlurCommand(ctx *commandContext) *cobra.Command {
	var deleteBlurry bool
	var recursive bool

	cmd := &cobra.Command{
		Use:   "blur <dir>",
		Short: "Score existing snapshot images for blur",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			dir, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve directory: %w", err)
			}

			svc := snapshot.NewService(cfg, logger)
			summary, err := svc.Sweep(cmd.Context(), snapshot.SweepOptions{
				Dir:       dir,
				Recursive: recursive,
				Delete:    deleteBlurry,
			})
			if err != nil {
				return err
			}

			results := summary.Results
			sort.Slice(results, func(i, j int) bool { return results[i].Score < results[j].Score })

			rows := make([][]string, 0, len(results))
			for _, result := range results {
				verdict := "sharp"
				switch {
				case result.Deleted:
					verdict = "deleted"
				case result.Blurry:
					verdict = "blurry"
				}
				rows = append(rows, []string{
					result.Path,
					strconv.FormatFloat(result.Score, 'f', 2, 64),
					verdict,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Image", "Score", "Verdict"},
				rows,
				2,
			))
			fmt.Fprintf(out, "%d images, %d blurry (threshold %.1f)\n", summary.Images, summary.Blurry, cfg.Blur.Threshold)
			if deleteBlurry {
				fmt.Fprintf(out, "Deleted %d blurry images\n", summary.Deleted)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&deleteBlurry, "delete", false, "Delete images classified as blurry")
	cmd.Flags().BoolVar(&recursive, "recursive", false, "Recurse into subdirectories")
	return cmd
}
