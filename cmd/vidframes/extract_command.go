package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"vidframes/internal/frames"
	"vidframes/internal/logging"
	"vidframes/internal/media/ffmpeg"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var (
		downscale float64
		start     int
		end       int
		format    string
	)

	cmd := &cobra.Command{
		Use:   "extract <video> <dir>",
		Short: "Decode frames to image files",
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
			imageFormat, err := normalizeImageFormat(format)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("downscale") {
				downscale = cfg.Decode.Downscale
			}
			prober, closeProber, err := ctx.prober()
			if err != nil {
				return err
			}
			defer closeProber()

			video, dir := args[0], args[1]
			reader, err := frames.NewReader(cmd.Context(), video,
				frames.WithDownscale(downscale),
				frames.WithStartFrame(start),
				frames.WithEndFrame(end),
				frames.WithFFmpegBinary(cfg.FFmpeg.FFmpegBinary),
				frames.WithProber(prober),
				frames.WithLogger(logger),
			)
			if err != nil {
				return err
			}
			defer reader.Close()

			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			geom := reader.Geometry()
			bar := newProgressBar(cmd.ErrOrStderr(), reader.FrameCount(), "extract")
			ext := formatExtensions[imageFormat]
			index := start
			for frame, err := range reader.All() {
				if err != nil {
					return err
				}
				name := filepath.Join(dir, fmt.Sprintf("frame_%06d%s", index, ext))
				if err := writeImageFile(name, frame.RGBA(), imageFormat); err != nil {
					return err
				}
				index++
				_ = bar.Add(1)
			}
			_ = bar.Finish()

			count := reader.FramesRead()
			logger.Info("frames extracted",
				logging.String(logging.FieldPath, video),
				logging.Int("frames", count),
				logging.String("dir", dir),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d frames (%dx%d %s) to %s\n",
				count, geom.Width, geom.Height, geom.PixelFormat, dir)
			return nil
		},
	}

	cmd.Flags().Float64Var(&downscale, "downscale", 1, "Divide the output size before 16-pixel alignment")
	cmd.Flags().IntVar(&start, "start", 0, "First frame to extract (zero-based)")
	cmd.Flags().IntVar(&end, "end", ffmpeg.NoEndFrame, "Last frame to extract, inclusive (-1 for the end of the stream)")
	cmd.Flags().StringVar(&format, "format", formatPNG, "Image format: png, bmp, tiff, or jpeg")
	return cmd
}
