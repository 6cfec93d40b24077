package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"framecull/internal/config"
	"framecull/internal/deps"
	"framecull/internal/fileutil"
	"framecull/internal/preflight"
	"framecull/internal/sampler"
	"framecull/internal/snapshot"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var policyFlag string
	var limit int
	var seed uint64
	var dryRun bool
	var recursive bool
	var subdirs bool

	cmd := &cobra.Command{
		Use:   "extract <input-dir> <output-dir> [count]",
		Short: "Extract sharp frame snapshots from videos",
		Long: `Extract samples timestamps from every video in the input directory,
decodes a frame per timestamp, and keeps the frames that pass the blur
gate. Rejected frames are deleted and the timestamp retried up to the
configured bound.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
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

			count := cfg.Extraction.FrameCount
			if len(args) == 3 {
				count, err = strconv.Atoi(args[2])
				if err != nil || count <= 0 {
					return fmt.Errorf("count must be a positive integer, got %q", args[2])
				}
			}

			policyName := policyFlag
			if policyName == "" {
				policyName = cfg.Extraction.Policy
			}
			policy, err := sampler.ParsePolicy(policyName)
			if err != nil {
				return err
			}

			if !dryRun {
				if err := os.MkdirAll(outputDir, 0o755); err != nil {
					return fmt.Errorf("create output directory: %w", err)
				}
				if err := reportPreflight(cmd, ctx, inputDir, outputDir); err != nil {
					return err
				}

				lock := flock.New(filepath.Join(outputDir, ".framecull.lock"))
				ok, err := lock.TryLock()
				if err != nil {
					return fmt.Errorf("acquire output lock: %w", err)
				}
				if !ok {
					return errors.New("another extraction is already writing to this directory")
				}
				defer func() {
					_ = lock.Unlock()
				}()
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
				bar = progressbar.Default(int64(total), "Extracting frames")
			}

			svc := snapshot.NewService(cfg, logger)
			summary, err := svc.Run(cmd.Context(), snapshot.Options{
				InputDir:     inputDir,
				OutputDir:    outputDir,
				Count:        count,
				Policy:       policy,
				Limit:        limit,
				Recursive:    recursive,
				PerVideoDirs: subdirs,
				DryRun:       dryRun,
				Seed:         seed,
				OnVideo: func(snapshot.VideoOutcome) {
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
			fmt.Fprintf(out, "Videos:    %d (processed %d, skipped %d, failed %d)\n",
				summary.Videos, summary.Processed, summary.Skipped, summary.Failed)
			fmt.Fprintf(out, "Frames:    %d accepted, %d abandoned\n", summary.Accepted, summary.Abandoned)
			fmt.Fprintf(out, "Dry run:   %s\n", yesNo(dryRun))
			return nil
		},
	}

	cmd.Flags().StringVar(&policyFlag, "policy", "", "Sampling policy: even, random, or combined (default from config)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Process at most this many videos (0 = all)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Fixed sampling seed for reproducible runs (0 = random)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be extracted without writing frames")
	cmd.Flags().BoolVar(&recursive, "recursive", false, "Recurse into subdirectories of the input directory")
	cmd.Flags().BoolVar(&subdirs, "subdirs", false, "Write each video's frames into its own subdirectory of the output directory")
	return cmd
}

// reportPreflight runs the environment checks and fails fast when any of
// them does not pass.
func reportPreflight(cmd *cobra.Command, ctx *commandContext, inputDir, outputDir string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	results := preflight.RunAll(cmd.Context(), cfg, inputDir, outputDir)
	failed := preflight.Failed(results)
	if len(failed) == 0 {
		return nil
	}

	out := cmd.ErrOrStderr()
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader("Preflight failures", colorize) {
		fmt.Fprintln(out, line)
	}
	var names []string
	for _, result := range failed {
		fmt.Fprintln(out, renderStatusLine(result.Name, statusError, result.Detail, colorize))
		names = append(names, result.Name)
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(names, ", "))
}

// requireTools fails before any file is touched when a required external
// binary is missing.
func requireTools(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	statuses := preflight.CheckTools(cmd.Context(), cfg)
	missing := deps.MissingRequired(statuses)
	if len(missing) == 0 {
		return nil
	}

	out := cmd.ErrOrStderr()
	colorize := shouldColorize(out)
	for _, status := range statuses {
		if status.Available || status.Optional {
			continue
		}
		fmt.Fprintln(out, renderStatusLine(status.Name, statusError, status.Detail, colorize))
	}
	return fmt.Errorf("missing required tools: %v", missing)
}
