package frames

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"vidframes/internal/logging"
	"vidframes/internal/media/ffmpeg"
)

// DefaultCloseTimeout bounds how long Close waits for ffmpeg to finish.
const DefaultCloseTimeout = 10 * time.Second

type writerConfig struct {
	fps          int
	crf          int
	inputPixFmt  string
	outputPixFmt string
	closeTimeout time.Duration
	binary       string
	logger       *slog.Logger
}

// WriterOption configures a Writer.
type WriterOption func(*writerConfig)

// WithFPS sets the output frame rate and GOP length.
func WithFPS(fps int) WriterOption {
	return func(c *writerConfig) { c.fps = fps }
}

// WithCRF sets the x264 constant rate factor.
func WithCRF(crf int) WriterOption {
	return func(c *writerConfig) { c.crf = crf }
}

// WithInputPixelFormat declares the channel layout of written frames.
func WithInputPixelFormat(pixFmt string) WriterOption {
	return func(c *writerConfig) { c.inputPixFmt = pixFmt }
}

// WithOutputPixelFormat sets the encoded pixel format.
func WithOutputPixelFormat(pixFmt string) WriterOption {
	return func(c *writerConfig) { c.outputPixFmt = pixFmt }
}

// WithCloseTimeout bounds the wait in Close. Non-positive values use the default.
func WithCloseTimeout(d time.Duration) WriterOption {
	return func(c *writerConfig) { c.closeTimeout = d }
}

// WithEncoderBinary overrides the ffmpeg executable.
func WithEncoderBinary(binary string) WriterOption {
	return func(c *writerConfig) { c.binary = binary }
}

// WithEncoderLogger sets the logger for session events and ffmpeg diagnostics.
func WithEncoderLogger(logger *slog.Logger) WriterOption {
	return func(c *writerConfig) { c.logger = logger }
}

// Writer encodes frames into an H.264 file.
type Writer struct {
	ctx          context.Context
	binary       string
	output       string
	args         []string
	width        int
	height       int
	channels     int
	closeTimeout time.Duration
	logger       *slog.Logger
	buf          []byte

	lock    *flock.Flock
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stderr  *logging.LineWriter
	written int
	closed  bool
	failed  error
}

// NewWriter prepares an encode of width x height frames into output. Nothing
// is started and the output is not touched until the first WriteFrame.
func NewWriter(ctx context.Context, output string, width, height int, opts ...WriterOption) (*Writer, error) {
	cfg := writerConfig{
		fps:          ffmpeg.DefaultFPS,
		crf:          ffmpeg.DefaultCRF,
		inputPixFmt:  ffmpeg.DefaultInputPixFmt,
		outputPixFmt: ffmpeg.DefaultOutputPixFmt,
		closeTimeout: DefaultCloseTimeout,
		binary:       "ffmpeg",
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.closeTimeout <= 0 {
		cfg.closeTimeout = DefaultCloseTimeout
	}

	args, err := ffmpeg.EncodeArgs(ffmpeg.EncodeOptions{
		Output:       output,
		Width:        width,
		Height:       height,
		FPS:          cfg.fps,
		CRF:          cfg.crf,
		InputPixFmt:  cfg.inputPixFmt,
		OutputPixFmt: cfg.outputPixFmt,
	})
	if err != nil {
		return nil, err
	}
	channels, _ := ffmpeg.PackedChannels(cfg.inputPixFmt)

	logger, _ := logging.NewSessionLogger(cfg.logger, "encoder")
	logger = logger.With(logging.String(logging.FieldPath, output))

	return &Writer{
		ctx:          ctx,
		binary:       cfg.binary,
		output:       output,
		args:         args,
		width:        width,
		height:       height,
		channels:     channels,
		closeTimeout: cfg.closeTimeout,
		logger:       logger,
		buf:          make([]byte, 0, width*height*channels),
	}, nil
}

// Args returns the ffmpeg arguments the session runs.
func (w *Writer) Args() []string {
	return append([]string(nil), w.args...)
}

// FramesWritten returns how many frames were handed to ffmpeg.
func (w *Writer) FramesWritten() int { return w.written }

// WriteFrame validates the frame's shape, starting ffmpeg on the first call,
// and writes its samples truncated to bytes. A mismatched frame is rejected
// before anything is spawned or written.
func (w *Writer) WriteFrame(frame Raster) error {
	if w.closed {
		return ErrClosed
	}
	if w.failed != nil {
		return w.failed
	}

	height, width, channels := frame.Dims()
	if height != w.height || width != w.width || channels != w.channels {
		return w.shapeError(height, width, channels, 0)
	}
	w.buf = frame.AppendUint8(w.buf[:0])
	if len(w.buf) != w.height*w.width*w.channels {
		return w.shapeError(height, width, channels, len(w.buf))
	}

	if w.cmd == nil {
		if err := w.start(); err != nil {
			w.failed = err
			return err
		}
	}
	if _, err := w.stdin.Write(w.buf); err != nil {
		err = fmt.Errorf("write frame %d: %w", w.written, err)
		if line := w.stderr.LastLine(); line != "" {
			err = fmt.Errorf("%w (ffmpeg: %s)", err, line)
		}
		w.failed = err
		return err
	}
	w.written++
	return nil
}

func (w *Writer) shapeError(height, width, channels, samples int) error {
	return &ShapeMismatchError{
		WantHeight:   w.height,
		WantWidth:    w.width,
		WantChannels: w.channels,
		Height:       height,
		Width:        width,
		Channels:     channels,
		Samples:      samples,
	}
}

// Close ends ffmpeg's input and waits up to the close timeout for the file to
// be finalized. On timeout ffmpeg is killed and *EncodeTimeoutError returned;
// a non-zero exit is returned as an error. Subsequent calls return nil.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.cmd == nil {
		return nil
	}
	defer w.releaseLock()

	if err := w.stdin.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		w.logger.Debug("close ffmpeg stdin", logging.Error(err))
	}

	done := make(chan error, 1)
	go func() { done <- w.cmd.Wait() }()

	timer := time.NewTimer(w.closeTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		w.stderr.Flush()
		if err != nil {
			if line := w.stderr.LastLine(); line != "" {
				return fmt.Errorf("ffmpeg encode %s: %w (%s)", w.output, err, line)
			}
			return fmt.Errorf("ffmpeg encode %s: %w", w.output, err)
		}
		w.logger.Info("encode complete", logging.Int("frames", w.written))
		return nil
	case <-timer.C:
		if w.cmd.Process != nil {
			_ = w.cmd.Process.Kill()
		}
		<-done
		w.stderr.Flush()
		w.logger.Warn("ffmpeg killed after close timeout",
			logging.Duration("timeout", w.closeTimeout),
			logging.Int("frames", w.written),
		)
		return &EncodeTimeoutError{Output: w.output, Timeout: w.closeTimeout}
	}
}

func (w *Writer) start() error {
	lock := flock.New(w.output + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock %s: %w", w.output, err)
	}
	if !locked {
		return fmt.Errorf("%s: %w", w.output, ErrOutputLocked)
	}
	w.lock = lock

	cmd := commandContext(w.ctx, w.binary, w.args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		w.releaseLock()
		return fmt.Errorf("ffmpeg stdin pipe: %w", err)
	}
	w.stderr = logging.NewLineWriter(w.logger, slog.LevelDebug, "ffmpeg")
	cmd.Stderr = w.stderr
	// Wait must not outlive a kill when a descendant still holds stderr.
	cmd.WaitDelay = w.closeTimeout

	w.logger.Info("starting encode",
		logging.String(logging.FieldCommand, w.binary+" "+strings.Join(w.args, " ")),
	)
	if err := cmd.Start(); err != nil {
		w.releaseLock()
		return fmt.Errorf("start ffmpeg: %w", err)
	}
	w.cmd = cmd
	w.stdin = stdin
	return nil
}

// releaseLock drops the advisory lock and removes the lock file.
func (w *Writer) releaseLock() {
	if w.lock == nil {
		return
	}
	if err := w.lock.Unlock(); err != nil {
		w.logger.Debug("release output lock", logging.Error(err))
	}
	_ = os.Remove(w.lock.Path())
	w.lock = nil
}
