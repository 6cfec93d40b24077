package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"framecull/internal/config"
	"framecull/internal/convert"
	"framecull/internal/fileutil"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var limit int
	var recursive bool
	var copyCompliant bool

	cmd := &cobra.Command{
		Use:   "convert <input-dir> <output-dir>",
		Short: "Re-encode videos to the target codec and width",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if err := requireTools(cmd, ctx); err != nil {
				return err
			}
			inputDir, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve input directory: %w", err)
			}
			outputDir, err := config.ExpandPath(args[1])
			if err != nil {
				return fmt.Errorf("resolve output directory: %w", err)
			}

			videos, err := fileutil.ScanVideos(inputDir, recursive)
			if err != nil {
				return err
			}
			total := len(videos)
			if limit > 0 && total > limit {
				total = limit
			}
			if total == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No videos found")
				return nil
			}

			var bar *progressbar.ProgressBar
			if !dryRun && shouldColorize(os.Stderr) {
				bar = progressbar.Default(int64(total), "Converting")
			}

			svc := convert.NewService(cfg, logger)
			summary, err := svc.Run(cmd.Context(), convert.Options{
				InputDir:      inputDir,
				OutputDir:     outputDir,
				Recursive:     recursive,
				Limit:         limit,
				CopyCompliant: copyCompliant,
				DryRun:        dryRun,
				OnVideo: func(convert.Outcome) {
					if bar != nil {
						_ = bar.Add(1)
					}
				},
			})
			if err != nil {
				return err
			}
			if bar != nil {
				_ = bar.Finish()
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Videos:  %d (converted %d, copied %d, skipped %d, failed %d)\n",
				summary.Videos, summary.Converted, summary.Copied, summary.Skipped, summary.Failed)
			fmt.Fprintf(out, "Target:  %s at %dpx\n", cfg.Convert.Codec, cfg.Convert.Width)
			fmt.Fprintf(out, "Dry run: %s\n", yesNo(dryRun))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be converted without encoding")
	cmd.Flags().IntVar(&limit, "limit", 0, "Process at most this many videos (0 = all)")
	cmd.Flags().BoolVar(&recursive, "recursive", false, "Recurse into subdirectories")
	cmd.Flags().BoolVar(&copyCompliant, "copy-compliant", false, "Copy already-compliant videos into the output directory instead of skipping them")
	return cmd
}
