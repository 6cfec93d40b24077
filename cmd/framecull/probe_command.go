package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"framecull/internal/config"
	"framecull/internal/media/ffprobe"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe <file>...",
		Short: "Show stream metadata for media files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(args))
			var failures int
			for _, arg := range args {
				path, err := config.ExpandPath(arg)
				if err != nil {
					return fmt.Errorf("resolve path: %w", err)
				}
				result, err := ffprobe.Inspect(cmd.Context(), cfg.FFprobeBinary(), path)
				if err != nil {
					rows = append(rows, []string{path, "-", "-", "-", "-", err.Error()})
					failures++
					continue
				}
				info, err := result.VideoInfo(path)
				if err != nil {
					rows = append(rows, []string{path, "-", "-", "-", "-", err.Error()})
					failures++
					continue
				}
				rows = append(rows, []string{
					path,
					info.Codec,
					fmt.Sprintf("%dx%d", info.Width, info.Height),
					fmt.Sprintf("%.1fs", info.Duration),
					strconv.FormatFloat(info.FrameRate, 'f', 3, 64),
					"",
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"File", "Codec", "Resolution", "Duration", "FPS", "Error"},
				rows,
				3, 4, 5,
			))
			if failures > 0 {
				fmt.Fprintf(out, "%d of %d files could not be probed\n", failures, len(args))
			}
			return nil
		},
	}
	return cmd
}
