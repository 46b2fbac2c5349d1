package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"vidframes/internal/frames"
	"vidframes/internal/logging"
)

func newEncodeCommand(ctx *commandContext) *cobra.Command {
	var (
		fps int
		crf int
	)

	cmd := &cobra.Command{
		Use:   "encode <dir> <output>",
		Short: "Encode a directory of images to H.264",
		Long: "Encode the images in a directory, in name order, to an H.264 file. The first\n" +
			"image sets the frame size; images of other sizes are scaled to it.",
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
			if !cmd.Flags().Changed("fps") {
				fps = cfg.Encode.FPS
			}
			if !cmd.Flags().Changed("crf") {
				crf = cfg.Encode.CRF
			}

			dir, output := args[0], args[1]
			paths, err := listImages(dir)
			if err != nil {
				return fmt.Errorf("list images: %w", err)
			}
			if len(paths) == 0 {
				return fmt.Errorf("no images found in %s", dir)
			}

			first, err := readImageFile(paths[0])
			if err != nil {
				return err
			}
			width, height := first.Bounds().Dx(), first.Bounds().Dy()
			pixFmt := cfg.Encode.InputPixFmt

			writer, err := frames.NewWriter(cmd.Context(), output, width, height,
				frames.WithFPS(fps),
				frames.WithCRF(crf),
				frames.WithInputPixelFormat(pixFmt),
				frames.WithOutputPixelFormat(cfg.Encode.OutputPixFmt),
				frames.WithCloseTimeout(cfg.CloseTimeoutDuration()),
				frames.WithEncoderBinary(cfg.FFmpeg.FFmpegBinary),
				frames.WithEncoderLogger(logger),
			)
			if err != nil {
				return err
			}

			bar := newProgressBar(cmd.ErrOrStderr(), len(paths), "encode")
			writeErr := func() error {
				for i, path := range paths {
					img := first
					if i > 0 {
						if img, err = readImageFile(path); err != nil {
							return err
						}
					}
					if b := img.Bounds(); b.Dx() != width || b.Dy() != height {
						logger.Warn("scaling image to frame size",
							logging.String(logging.FieldPath, path),
							logging.Int("width", b.Dx()),
							logging.Int("height", b.Dy()),
						)
						img = fitImage(img, width, height)
					}
					frame, err := frames.PackImage(img, pixFmt)
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
			if err := errors.Join(writeErr, closeErr); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Encoded %d frames (%dx%d @ %d fps) to %s\n",
				writer.FramesWritten(), width, height, fps, output)
			return nil
		},
	}

	cmd.Flags().IntVar(&fps, "fps", 24, "Output frame rate")
	cmd.Flags().IntVar(&crf, "crf", 21, "x264 constant rate factor (0-51)")
	return cmd
}
