package ffmpeg

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"vidframes/internal/media/ffprobe"
)

// NoEndFrame leaves the decode running to the end of the stream.
const NoEndFrame = -1

const rawChannels = 3

// maxDimension bounds each scaled output dimension.
const maxDimension = 1 << 16

var (
	// ErrInvalidVideo reports metadata that cannot be decoded frame-exactly:
	// a non-positive frame count, or a missing frame rate when seeking.
	ErrInvalidVideo = errors.New("invalid video")
	// ErrInvalidOptions reports trimming or scaling options out of range.
	ErrInvalidOptions = errors.New("invalid decode options")
)

// DecodeOptions trims and scales a decode. The zero value is not usable as
// is: EndFrameInclusive must be NoEndFrame to decode the whole stream.
type DecodeOptions struct {
	// Downscale divides the sample-aspect-corrected dimensions. Zero means 1.
	Downscale float64
	// StartFrame is the first frame to emit.
	StartFrame int
	// EndFrameInclusive is the last frame to emit, or NoEndFrame.
	EndFrameInclusive int
}

// DefaultDecodeOptions decodes every frame at full size.
func DefaultDecodeOptions() DecodeOptions {
	return DecodeOptions{Downscale: 1, EndFrameInclusive: NoEndFrame}
}

// Geometry describes the raw frames a decode produces.
type Geometry struct {
	// Width and Height are the aligned output dimensions.
	Width  int
	Height int
	// SourceWidth is the display width after sample aspect correction.
	SourceWidth  int
	SourceHeight int
	Channels     int
	PixelFormat  string
	// BytesPerSample is 2 for rgb48le and 1 for rgb24.
	BytesPerSample int
}

// FrameSize returns the exact byte length of one raw frame.
func (g Geometry) FrameSize() int {
	return g.Width * g.Height * g.Channels * g.BytesPerSample
}

// Decode is a resolved decode command.
type Decode struct {
	Args     []string
	Input    string
	Geometry Geometry
	// Seek is the output seek offset in seconds.
	Seek float64
	// Frames is the number of frames requested with -vframes, or the total
	// when no end frame was given.
	Frames int
	Scaled bool
}

// DecodeArgs derives the ffmpeg arguments that stream meta's video as packed
// RGB on stdout.
func DecodeArgs(meta ffprobe.Metadata, opts DecodeOptions) (Decode, error) {
	downscale := opts.Downscale
	if downscale == 0 {
		downscale = 1
	}
	if downscale < 0 || math.IsNaN(downscale) || math.IsInf(downscale, 0) {
		return Decode{}, fmt.Errorf("%w: downscale %v", ErrInvalidOptions, opts.Downscale)
	}
	if opts.StartFrame < 0 {
		return Decode{}, fmt.Errorf("%w: negative start frame %d", ErrInvalidOptions, opts.StartFrame)
	}

	bits := meta.BitsPerSample()
	sar := meta.SampleAspectRatio()
	total := meta.FrameCount()
	if total <= 0 {
		return Decode{}, fmt.Errorf("%w: video has zero frames", ErrInvalidVideo)
	}

	end := opts.EndFrameInclusive
	frames := total
	if end > NoEndFrame {
		end = min(total-1, end)
		frames = min(total, end-opts.StartFrame+1)
		if frames <= 0 {
			return Decode{}, fmt.Errorf("%w: end frame %d precedes start frame %d", ErrInvalidOptions, end, opts.StartFrame)
		}
	}

	var seek float64
	if opts.StartFrame > 0 {
		rate, ok := meta.FrameRate()
		if !ok {
			return Decode{}, fmt.Errorf("%w: frame rate unknown, cannot seek to frame %d", ErrInvalidVideo, opts.StartFrame)
		}
		seek = float64(opts.StartFrame) * float64(rate.Den) / float64(rate.Num)
	}

	geom := Geometry{
		SourceHeight:   meta.Height(),
		Channels:       rawChannels,
		PixelFormat:    PixFmtRGB24,
		BytesPerSample: 1,
	}
	if bits > 8 {
		geom.PixelFormat = PixFmtRGB48LE
		geom.BytesPerSample = 2
	}
	// Non-square pixels: widen to the display aspect.
	geom.SourceWidth = int(math.Ceil(float64(int64(meta.Width())*int64(sar.Num)) / float64(sar.Den)))
	scaledWidth := float64(geom.SourceWidth) / downscale
	scaledHeight := float64(geom.SourceHeight) / downscale
	if scaledWidth > maxDimension || scaledHeight > maxDimension {
		return Decode{}, fmt.Errorf("%w: downscale %v yields %.0fx%.0f, above %d", ErrInvalidOptions, opts.Downscale, scaledWidth, scaledHeight, maxDimension)
	}
	geom.Width = AlignUp16(int(scaledWidth))
	geom.Height = AlignUp16(int(scaledHeight))
	if geom.Width <= 0 || geom.Height <= 0 {
		return Decode{}, fmt.Errorf("%w: empty output frame %dx%d", ErrInvalidOptions, geom.Width, geom.Height)
	}
	if float64(geom.Width)*float64(geom.Height)*float64(geom.Channels*geom.BytesPerSample) > math.MaxInt {
		return Decode{}, fmt.Errorf("%w: frame size of %dx%d overflows", ErrInvalidOptions, geom.Width, geom.Height)
	}

	input := meta.Filename()
	if strings.TrimSpace(input) == "" {
		return Decode{}, fmt.Errorf("%w: no input filename", ErrInvalidVideo)
	}

	args := []string{"-i", input}
	if seek > 0 {
		args = append(args, "-ss", formatSeconds(seek))
	}
	if end > NoEndFrame {
		args = append(args, "-vframes", strconv.Itoa(frames))
	}

	// TODO: detect interlaced sources from the stream's field_order and
	// enable the yadif prefix.
	interlaced := false
	scaled := geom.Width != geom.SourceWidth || geom.Height != geom.SourceHeight
	if scaled {
		filter := fmt.Sprintf("scale=%d:%d", geom.Width, geom.Height)
		if interlaced {
			filter = "yadif," + filter
		}
		args = append(args, "-vf", filter)
	}
	args = append(args, "-pix_fmt", geom.PixelFormat, "-f", "rawvideo", "-")

	return Decode{
		Args:     args,
		Input:    input,
		Geometry: geom,
		Seek:     seek,
		Frames:   frames,
		Scaled:   scaled,
	}, nil
}

// formatSeconds renders seconds the way ffmpeg logs them back: shortest
// decimal form, always with a fractional part.
func formatSeconds(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
