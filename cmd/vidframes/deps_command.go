package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vidframes/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check ffmpeg, ffprobe, and writable directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries(cmd.Context(), deps.Requirements(cfg))
			if statuses[0].Available {
				statuses = append(statuses, deps.CheckEncoder(cmd.Context(), cfg.FFmpeg.FFmpegBinary, deps.H264Encoder))
			}
			if cfg.Paths.LogDir != "" {
				statuses = append(statuses, deps.CheckWritableDir("Log directory", cfg.Paths.LogDir))
			}
			if cfg.ProbeCache.Enabled {
				statuses = append(statuses, deps.CheckWritableDir("Probe cache", cfg.Paths.CacheDir))
			}

			out := cmd.OutOrStdout()
			colorize := isTerminal(out)
			for _, status := range statuses {
				fmt.Fprintln(out, renderStatusLine(status.Name, dependencyKind(status), dependencyMessage(status), colorize))
			}

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				names := make([]string, 0, len(missing))
				for _, status := range missing {
					names = append(names, status.Name)
				}
				return errors.New("missing required dependencies: " + strings.Join(names, ", "))
			}
			return nil
		},
	}
}

func dependencyKind(status deps.Status) statusKind {
	switch {
	case status.Available && status.Detail == "":
		return statusOK
	case status.Available || status.Optional:
		return statusWarn
	default:
		return statusError
	}
}

func dependencyMessage(status deps.Status) string {
	parts := make([]string, 0, 2)
	switch {
	case status.Version != "":
		parts = append(parts, status.Version)
	case status.Path != "":
		parts = append(parts, status.Path)
	}
	if status.Detail != "" {
		parts = append(parts, status.Detail)
	}
	return strings.Join(parts, "; ")
}
