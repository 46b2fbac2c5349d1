package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"vidframes/internal/media/ffmpeg"
	"vidframes/internal/media/ffprobe"
)

type probeView struct {
	Path          string      `json:"path"`
	Format        string      `json:"format"`
	Codec         string      `json:"codec"`
	Width         int         `json:"width"`
	Height        int         `json:"height"`
	PixelFormat   string      `json:"pix_fmt,omitempty"`
	BitsPerSample int         `json:"bits_per_sample"`
	SampleAspect  string      `json:"sample_aspect_ratio"`
	FrameRate     string      `json:"frame_rate,omitempty"`
	FrameRateFPS  float64     `json:"frame_rate_fps,omitempty"`
	FrameCount    int         `json:"frame_count"`
	Duration      string      `json:"duration,omitempty"`
	Decode        *decodeView `json:"decode,omitempty"`
}

type decodeView struct {
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	PixelFormat    string `json:"pix_fmt"`
	BytesPerSample int    `json:"bytes_per_sample"`
	FrameBytes     int    `json:"frame_bytes"`
	Scaled         bool   `json:"scaled"`
}

func newProbeView(path string, meta ffprobe.Metadata, downscale float64) probeView {
	stream := meta.Stream()
	view := probeView{
		Path:          path,
		Format:        meta.FormatName(),
		Codec:         stream.CodecName,
		Width:         meta.Width(),
		Height:        meta.Height(),
		PixelFormat:   stream.PixFmt,
		BitsPerSample: meta.BitsPerSample(),
		SampleAspect:  meta.SampleAspectRatio().String(),
		FrameCount:    meta.FrameCount(),
		Duration:      stream.Duration,
	}
	if rate, ok := meta.FrameRate(); ok {
		view.FrameRate = rate.String()
		view.FrameRateFPS = rate.Float64()
	}
	opts := ffmpeg.DefaultDecodeOptions()
	opts.Downscale = downscale
	if decode, err := ffmpeg.DecodeArgs(meta, opts); err == nil {
		geom := decode.Geometry
		view.Decode = &decodeView{
			Width:          geom.Width,
			Height:         geom.Height,
			PixelFormat:    geom.PixelFormat,
			BytesPerSample: geom.BytesPerSample,
			FrameBytes:     geom.FrameSize(),
			Scaled:         decode.Scaled,
		}
	}
	return view
}

func (v probeView) rows() [][]string {
	rows := [][]string{
		{fieldLabel("path"), v.Path},
		{fieldLabel("format"), v.Format},
		{fieldLabel("codec"), v.Codec},
		{fieldLabel("size"), fmt.Sprintf("%dx%d", v.Width, v.Height)},
		{fieldLabel("pixel_format"), v.PixelFormat},
		{fieldLabel("bits_per_sample"), strconv.Itoa(v.BitsPerSample)},
		{fieldLabel("sample_aspect_ratio"), v.SampleAspect},
	}
	frameRate := "unknown"
	if v.FrameRate != "" {
		frameRate = fmt.Sprintf("%s (%.3f fps)", v.FrameRate, v.FrameRateFPS)
	}
	rows = append(rows,
		[]string{fieldLabel("frame_rate"), frameRate},
		[]string{fieldLabel("frame_count"), strconv.Itoa(v.FrameCount)},
	)
	if v.Duration != "" {
		rows = append(rows, []string{fieldLabel("duration"), v.Duration + "s"})
	}
	if v.Decode != nil {
		rows = append(rows,
			[]string{fieldLabel("decoded_size"), fmt.Sprintf("%dx%d", v.Decode.Width, v.Decode.Height)},
			[]string{fieldLabel("decoded_format"), v.Decode.PixelFormat},
			[]string{fieldLabel("frame_bytes"), strconv.Itoa(v.Decode.FrameBytes)},
		)
	}
	return rows
}

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var downscale float64

	cmd := &cobra.Command{
		Use:   "probe <video>",
		Short: "Show stream metadata and the decoded frame geometry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
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

			meta, err := prober(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			view := newProbeView(args[0], meta, downscale)
			if jsonOutput {
				return writeJSON(cmd, view)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, view.rows(), nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output JSON")
	cmd.Flags().Float64Var(&downscale, "downscale", 1, "Downscale factor used for the decoded geometry")
	return cmd
}
