package frames

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os/exec"
	"strings"

	"vidframes/internal/logging"
	"vidframes/internal/media/ffmpeg"
	"vidframes/internal/media/ffprobe"
)

var commandContext = exec.CommandContext

// Sixteen-bit samples are divided by 257 so 65535 maps to 255.
const sixteenBitDivisor = 257

// Prober resolves the metadata of a video file.
type Prober func(ctx context.Context, path string) (ffprobe.Metadata, error)

type readerConfig struct {
	downscale     float64
	startFrame    int
	endFrame      int
	ffmpegBinary  string
	ffprobeBinary string
	prober        Prober
	logger        *slog.Logger
}

// ReaderOption configures a Reader.
type ReaderOption func(*readerConfig)

// WithDownscale divides the output dimensions by factor before alignment.
func WithDownscale(factor float64) ReaderOption {
	return func(c *readerConfig) { c.downscale = factor }
}

// WithStartFrame skips to the given zero-based frame.
func WithStartFrame(frame int) ReaderOption {
	return func(c *readerConfig) { c.startFrame = frame }
}

// WithEndFrame stops after the given zero-based frame, inclusive.
func WithEndFrame(frame int) ReaderOption {
	return func(c *readerConfig) { c.endFrame = frame }
}

// WithFFmpegBinary overrides the ffmpeg executable.
func WithFFmpegBinary(binary string) ReaderOption {
	return func(c *readerConfig) { c.ffmpegBinary = binary }
}

// WithFFprobeBinary overrides the ffprobe executable used by the default prober.
func WithFFprobeBinary(binary string) ReaderOption {
	return func(c *readerConfig) { c.ffprobeBinary = binary }
}

// WithProber replaces the metadata lookup, for example with a cached one.
func WithProber(p Prober) ReaderOption {
	return func(c *readerConfig) { c.prober = p }
}

// WithLogger sets the logger for session events and ffmpeg diagnostics.
func WithLogger(logger *slog.Logger) ReaderOption {
	return func(c *readerConfig) { c.logger = logger }
}

// Reader streams decoded frames from one video file.
type Reader struct {
	ctx     context.Context
	binary  string
	path    string
	meta    ffprobe.Metadata
	decode  ffmpeg.Decode
	divisor float64
	buf     []byte
	logger  *slog.Logger
	stderr  *logging.LineWriter
	cmd     *exec.Cmd
	stdout  io.ReadCloser
	read    int
	closed  bool
	failed  error
}

// NewReader probes path and prepares a decode session. ffmpeg is not started
// until the first ReadFrame. When no end frame is given the session stops
// after the last frame the container reports.
func NewReader(ctx context.Context, path string, opts ...ReaderOption) (*Reader, error) {
	cfg := readerConfig{
		downscale:     1,
		endFrame:      ffmpeg.NoEndFrame,
		ffmpegBinary:  "ffmpeg",
		ffprobeBinary: "ffprobe",
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("frames: video path required")
	}
	prober := cfg.prober
	if prober == nil {
		binary := cfg.ffprobeBinary
		prober = func(ctx context.Context, path string) (ffprobe.Metadata, error) {
			return ffprobe.Probe(ctx, binary, path)
		}
	}

	meta, err := prober(ctx, path)
	if err != nil {
		return nil, err
	}
	if meta.FrameCount() <= 0 {
		return nil, fmt.Errorf("%s: %w: frame count unknown", path, ffmpeg.ErrInvalidVideo)
	}

	end := cfg.endFrame
	if end == ffmpeg.NoEndFrame {
		end = meta.FrameCount() - 1
	}
	decode, err := ffmpeg.DecodeArgs(meta, ffmpeg.DecodeOptions{
		Downscale:         cfg.downscale,
		StartFrame:        cfg.startFrame,
		EndFrameInclusive: end,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	logger, _ := logging.NewSessionLogger(cfg.logger, "decoder")
	logger = logger.With(logging.String(logging.FieldPath, path))

	divisor := 1.0
	if decode.Geometry.BytesPerSample == 2 {
		divisor = 1.0 / sixteenBitDivisor
	}

	r := &Reader{
		ctx:     ctx,
		binary:  cfg.ffmpegBinary,
		path:    path,
		meta:    meta,
		decode:  decode,
		divisor: divisor,
		buf:     make([]byte, decode.Geometry.FrameSize()),
		logger:  logger,
	}
	logger.Debug("decode session prepared",
		logging.Int("width", decode.Geometry.Width),
		logging.Int("height", decode.Geometry.Height),
		logging.String("pix_fmt", decode.Geometry.PixelFormat),
		logging.Int("frames", decode.Frames),
		logging.Float64("seek_seconds", decode.Seek),
		logging.Bool("scaled", decode.Scaled),
	)
	return r, nil
}

// Metadata returns the probed metadata of the source.
func (r *Reader) Metadata() ffprobe.Metadata { return r.meta }

// Geometry returns the shape of the frames this reader produces.
func (r *Reader) Geometry() ffmpeg.Geometry { return r.decode.Geometry }

// FrameCount returns the number of frames the session expects to read.
func (r *Reader) FrameCount() int { return r.decode.Frames }

// FramesRead returns how many complete frames have been returned.
func (r *Reader) FramesRead() int { return r.read }

// Args returns the ffmpeg arguments the session runs.
func (r *Reader) Args() []string {
	return append([]string(nil), r.decode.Args...)
}

// ReadFrame returns the next frame. The first call starts ffmpeg. A stream
// that ends before a full frame yields a *ShortReadError; once an error has
// been returned the session stays failed.
func (r *Reader) ReadFrame() (*Frame, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if r.failed != nil {
		return nil, r.failed
	}
	if r.cmd == nil {
		if err := r.start(); err != nil {
			r.failed = err
			return nil, err
		}
	}

	n, err := io.ReadFull(r.stdout, r.buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = &ShortReadError{Frame: r.read, Got: n, Want: len(r.buf), Detail: r.stderr.LastLine()}
		} else {
			err = fmt.Errorf("read frame %d: %w", r.read, err)
		}
		r.failed = err
		return nil, err
	}

	geom := r.decode.Geometry
	frame := NewFrame(geom.Height, geom.Width, geom.Channels)
	decodeSamples(frame.Pix, r.buf, geom.BytesPerSample, r.divisor)
	r.read++
	return frame, nil
}

// All iterates the remaining frames. Iteration ends after FrameCount frames,
// or quietly when the stream ends exactly on a frame boundary since container
// frame counts can overstate the decodable frames. Any other error is yielded
// once and ends the iteration.
func (r *Reader) All() iter.Seq2[*Frame, error] {
	return func(yield func(*Frame, error) bool) {
		for r.read < r.decode.Frames {
			frame, err := r.ReadFrame()
			if err != nil {
				var short *ShortReadError
				if errors.As(err, &short) && short.Got == 0 && r.read > 0 {
					r.logger.Warn("stream ended before expected frame count",
						logging.Int("frames_read", r.read),
						logging.Int("frames_expected", r.decode.Frames),
					)
					return
				}
				yield(nil, err)
				return
			}
			if !yield(frame, nil) {
				return
			}
		}
	}
}

// Close stops ffmpeg and releases the pipe. It is safe to call more than
// once and before any frame was read.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.cmd == nil {
		return nil
	}

	// Exit status after a kill is not meaningful.
	if r.cmd.Process != nil {
		_ = r.cmd.Process.Kill()
	}
	err := r.cmd.Wait()
	r.stderr.Flush()
	r.logger.Debug("decode session closed", logging.Int("frames_read", r.read))

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return fmt.Errorf("close decoder: %w", err)
	}
	return nil
}

func (r *Reader) start() error {
	cmd := commandContext(r.ctx, r.binary, r.decode.Args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	r.stderr = logging.NewLineWriter(r.logger, slog.LevelDebug, "ffmpeg")
	cmd.Stderr = r.stderr

	r.logger.Info("starting decode",
		logging.String(logging.FieldCommand, r.binary+" "+strings.Join(r.decode.Args, " ")),
	)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}
	r.cmd = cmd
	r.stdout = stdout
	return nil
}

// decodeSamples converts packed little-endian samples to floats scaled by
// divisor.
func decodeSamples(dst []float64, src []byte, bytesPerSample int, divisor float64) {
	if bytesPerSample == 2 {
		for i := range dst {
			dst[i] = float64(binary.LittleEndian.Uint16(src[2*i:])) * divisor
		}
		return
	}
	for i, b := range src[:len(dst)] {
		dst[i] = float64(b) * divisor
	}
}
