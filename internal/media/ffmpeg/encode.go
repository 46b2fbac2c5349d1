package ffmpeg

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Encoder defaults.
const (
	DefaultFPS          = 24
	DefaultCRF          = 21
	DefaultInputPixFmt  = PixFmtBGR24
	DefaultOutputPixFmt = PixFmtYUV420P
	maxCRF              = 51
)

// EncodeOptions configures an H.264 encode from raw frames on stdin.
type EncodeOptions struct {
	Output       string
	Width        int
	Height       int
	FPS          int
	CRF          int
	InputPixFmt  string
	OutputPixFmt string
}

// DefaultEncodeOptions returns options for output at the given size.
func DefaultEncodeOptions(output string, width, height int) EncodeOptions {
	return EncodeOptions{
		Output:       output,
		Width:        width,
		Height:       height,
		FPS:          DefaultFPS,
		CRF:          DefaultCRF,
		InputPixFmt:  DefaultInputPixFmt,
		OutputPixFmt: DefaultOutputPixFmt,
	}
}

// EncodeArgs builds the ffmpeg arguments for an H.264 encode with a GOP of one
// second, no B-frames, and the moov atom relocated for progressive playback.
func EncodeArgs(opts EncodeOptions) ([]string, error) {
	output := strings.TrimSpace(opts.Output)
	if output == "" {
		return nil, errors.New("encode: output path required")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("encode: invalid frame size %dx%d", opts.Width, opts.Height)
	}
	if opts.FPS <= 0 {
		return nil, fmt.Errorf("encode: invalid fps %d", opts.FPS)
	}
	if opts.CRF < 0 || opts.CRF > maxCRF {
		return nil, fmt.Errorf("encode: crf %d outside 0-%d", opts.CRF, maxCRF)
	}
	inFmt := strings.TrimSpace(opts.InputPixFmt)
	if inFmt == "" {
		inFmt = DefaultInputPixFmt
	}
	if _, ok := PackedChannels(inFmt); !ok {
		return nil, fmt.Errorf("encode: unsupported input pixel format %q", inFmt)
	}
	outFmt := strings.TrimSpace(opts.OutputPixFmt)
	if outFmt == "" {
		outFmt = DefaultOutputPixFmt
	}

	fps := strconv.Itoa(opts.FPS)
	return []string{
		"-v", "info",
		"-f", "rawvideo",
		"-pix_fmt", inFmt,
		"-s:v", fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"-r", fps,
		"-i", "-",
		"-vcodec", "libx264",
		"-g", fps,
		"-bf", "0",
		"-crf", strconv.Itoa(opts.CRF),
		"-pix_fmt", outFmt,
		"-movflags", "faststart",
		"-y", output,
	}, nil
}
