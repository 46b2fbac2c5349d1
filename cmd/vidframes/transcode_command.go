package main

import (
	"errors"
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"vidframes/internal/frames"
	"vidframes/internal/logging"
	"vidframes/internal/media/ffmpeg"
)

func newTranscodeCommand(ctx *commandContext) *cobra.Command {
	var (
		downscale float64
		start     int
		end       int
		fps       int
		crf       int
	)

	cmd := &cobra.Command{
		Use:   "transcode <input> <output>",
		Short: "Re-encode a video through the raw frame pipe",
		Long: "Decode the input to raw RGB frames and encode them to H.264. The output frame\n" +
			"rate defaults to the source's, rounded to a whole number.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("downscale") {
				downscale = cfg.Decode.Downscale
			}
			if !cmd.Flags().Changed("crf") {
				crf = cfg.Encode.CRF
			}
			prober, closeProber, err := ctx.prober()
			if err != nil {
				return err
			}
			defer closeProber()

			input, output := args[0], args[1]
			reader, err := frames.NewReader(cmd.Context(), input,
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

			if !cmd.Flags().Changed("fps") {
				fps = cfg.Encode.FPS
				if rate, ok := reader.Metadata().FrameRate(); ok {
					fps = max(1, int(math.Round(rate.Float64())))
				}
			}

			geom := reader.Geometry()
			writer, err := frames.NewWriter(cmd.Context(), output, geom.Width, geom.Height,
				frames.WithFPS(fps),
				frames.WithCRF(crf),
				frames.WithInputPixelFormat(ffmpeg.PixFmtRGB24),
				frames.WithOutputPixelFormat(cfg.Encode.OutputPixFmt),
				frames.WithCloseTimeout(cfg.CloseTimeoutDuration()),
				frames.WithEncoderBinary(cfg.FFmpeg.FFmpegBinary),
				frames.WithEncoderLogger(logger),
			)
			if err != nil {
				return err
			}

			bar := newProgressBar(cmd.ErrOrStderr(), reader.FrameCount(), "transcode")
			pumpErr := func() error {
				for frame, err := range reader.All() {
					if err != nil {
						return err
					}
					if err := writer.WriteFrame(frame); err != nil {
						return err
					}
					_ = bar.Add(1)
				}
				return nil
			}()
			closeErr := writer.Close()
			_ = bar.Finish()
			if err := errors.Join(pumpErr, closeErr); err != nil {
				return err
			}

			logger.Info("transcode complete",
				logging.String(logging.FieldPath, input),
				logging.String("output", output),
				logging.Int("frames", writer.FramesWritten()),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "Transcoded %d frames (%dx%d @ %d fps) to %s\n",
				writer.FramesWritten(), geom.Width, geom.Height, fps, output)
			return nil
		},
	}

	cmd.Flags().Float64Var(&downscale, "downscale", 1, "Divide the output size before 16-pixel alignment")
	cmd.Flags().IntVar(&start, "start", 0, "First frame to keep (zero-based)")
	cmd.Flags().IntVar(&end, "end", ffmpeg.NoEndFrame, "Last frame to keep, inclusive (-1 for the end of the stream)")
	cmd.Flags().IntVar(&fps, "fps", 24, "Output frame rate (defaults to the source rate)")
	cmd.Flags().IntVar(&crf, "crf", 21, "x264 constant rate factor (0-51)")
	return cmd
}
