package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"framecull/internal/config"
	"framecull/internal/cull"
)

func newCullCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var limit int
	var recursive bool

	cmd := &cobra.Command{
		Use:   "cull <dir>",
		Short: "Delete videos below the resolution or duration gates",
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
			if err := requireTools(cmd, ctx); err != nil {
				return err
			}
			dir, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve directory: %w", err)
			}

			svc := cull.NewService(cfg, logger)
			summary, err := svc.Run(cmd.Context(), cull.Options{
				InputDir:  dir,
				Recursive: recursive,
				Limit:     limit,
				DryRun:    dryRun,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			verb := "Deleted"
			if dryRun {
				verb = "Would delete"
			}
			for _, decision := range summary.Decisions {
				if decision.Delete && decision.Err == nil {
					fmt.Fprintf(out, "%s %s (%s)\n", verb, decision.Source, decision.Reason)
				}
			}
			fmt.Fprintf(out, "Videos:  %d (kept %d, deleted %d, failed %d)\n",
				summary.Videos, summary.Kept, summary.Deleted, summary.Failed)
			fmt.Fprintf(out, "Dry run: %s\n", yesNo(dryRun))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be deleted without removing files")
	cmd.Flags().IntVar(&limit, "limit", 0, "Process at most this many videos (0 = all)")
	cmd.Flags().BoolVar(&recursive, "recursive", false, "Recurse into subdirectories")
	return cmd
}
