package frames

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"vidframes/internal/media/ffmpeg"
)

func solidFrame(height, width, channels int, value float64) *Frame {
	f := NewFrame(height, width, channels)
	for i := range f.Pix {
		f.Pix[i] = value
	}
	return f
}

func TestWriterRejectsShapeMismatchBeforeSpawn(t *testing.T) {
	spawned := stubFFmpeg(t, "sink")
	output := filepath.Join(t.TempDir(), "out.mp4")

	w, err := NewWriter(context.Background(), output, 32, 32)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })

	cases := []struct {
		name  string
		frame Raster
	}{
		{"height", NewFrame(16, 32, 3)},
		{"width", NewFrame(32, 16, 3)},
		{"channels", NewFrame(32, 32, 4)},
		{"samples", &Frame{Height: 32, Width: 32, Channels: 3, Pix: make([]float64, 10)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := w.WriteFrame(tc.frame)
			var mismatch *ShapeMismatchError
			if !errors.As(err, &mismatch) {
				t.Fatalf("expected ShapeMismatchError, got %v", err)
			}
			if mismatch.WantHeight != 32 || mismatch.WantWidth != 32 || mismatch.WantChannels != 3 {
				t.Fatalf("unexpected expectation in %+v", mismatch)
			}
		})
	}

	if spawned.Load() != 0 {
		t.Fatal("ffmpeg started for a rejected frame")
	}
	if _, err := os.Stat(output + ".lock"); !os.IsNotExist(err) {
		t.Fatalf("lock file created for a rejected frame: %v", err)
	}
	if w.FramesWritten() != 0 {
		t.Fatalf("FramesWritten = %d", w.FramesWritten())
	}
}

func TestWriterStreamsFrames(t *testing.T) {
	dir := t.TempDir()
	countFile := filepath.Join(dir, "bytes")
	spawned := stubFFmpeg(t, "sink", "FRAMES_HELPER_OUT="+countFile)
	output := filepath.Join(dir, "out.mp4")

	w, err := NewWriter(context.Background(), output, 32, 32, WithFPS(30), WithCRF(18))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if spawned.Load() != 0 {
		t.Fatal("ffmpeg started by NewWriter")
	}
	args := strings.Join(w.Args(), " ")
	for _, want := range []string{"-s:v 32x32", "-r 30", "-g 30", "-crf 18", "-pix_fmt bgr24", "-y " + output} {
		if !strings.Contains(args, want) {
			t.Fatalf("expected %q in %q", want, args)
		}
	}

	if err := w.WriteFrame(solidFrame(32, 32, 3, 12.7)); err != nil {
		t.Fatalf("WriteFrame float: %v", err)
	}
	f8 := NewFrame8(32, 32, 3)
	if err := w.WriteFrame(f8); err != nil {
		t.Fatalf("WriteFrame uint8: %v", err)
	}
	if _, err := os.Stat(output + ".lock"); err != nil {
		t.Fatalf("expected lock file while encoding: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if spawned.Load() != 1 {
		t.Fatalf("spawned %d processes, want 1", spawned.Load())
	}
	got, err := os.ReadFile(countFile)
	if err != nil {
		t.Fatalf("read helper output: %v", err)
	}
	if string(got) != "6144" {
		t.Fatalf("ffmpeg received %s bytes, want 6144", got)
	}
	if w.FramesWritten() != 2 {
		t.Fatalf("FramesWritten = %d, want 2", w.FramesWritten())
	}
	if _, err := os.Stat(output + ".lock"); !os.IsNotExist(err) {
		t.Fatalf("lock file not removed: %v", err)
	}
	if err := w.WriteFrame(f8); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestWriterInputPixelFormatChannels(t *testing.T) {
	stubFFmpeg(t, "sink", "FRAMES_HELPER_OUT="+filepath.Join(t.TempDir(), "bytes"))

	w, err := NewWriter(context.Background(), filepath.Join(t.TempDir(), "out.mp4"), 16, 16,
		WithInputPixelFormat("rgba"))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })

	var mismatch *ShapeMismatchError
	if err := w.WriteFrame(NewFrame(16, 16, 3)); !errors.As(err, &mismatch) || mismatch.WantChannels != 4 {
		t.Fatalf("expected 4-channel mismatch, got %v", err)
	}
	if err := w.WriteFrame(NewFrame(16, 16, 4)); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
}

func TestWriterOutputLocked(t *testing.T) {
	spawned := stubFFmpeg(t, "sink")
	output := filepath.Join(t.TempDir(), "out.mp4")

	holder := flock.New(output + ".lock")
	locked, err := holder.TryLock()
	if err != nil || !locked {
		t.Fatalf("pre-lock: locked=%v err=%v", locked, err)
	}
	t.Cleanup(func() { _ = holder.Unlock() })

	w, err := NewWriter(context.Background(), output, 16, 16)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })

	if err := w.WriteFrame(NewFrame(16, 16, 3)); !errors.Is(err, ErrOutputLocked) {
		t.Fatalf("expected ErrOutputLocked, got %v", err)
	}
	if spawned.Load() != 0 {
		t.Fatal("ffmpeg started without the output lock")
	}
}

func TestWriterCloseReportsFailure(t *testing.T) {
	stubFFmpeg(t, "sinkfail")

	w, err := NewWriter(context.Background(), filepath.Join(t.TempDir(), "out.mp4"), 16, 16)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.WriteFrame(NewFrame(16, 16, 3)); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	err = w.Close()
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !strings.Contains(err.Error(), "Conversion failed!") {
		t.Fatalf("expected ffmpeg diagnostic in %q", err)
	}
}

func TestWriterCloseTimeout(t *testing.T) {
	stubFFmpeg(t, "stall")

	w, err := NewWriter(context.Background(), filepath.Join(t.TempDir(), "out.mp4"), 16, 16,
		WithCloseTimeout(200*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.WriteFrame(NewFrame(16, 16, 3)); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	start := time.Now()
	err = w.Close()
	var timeout *EncodeTimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("expected EncodeTimeoutError, got %v", err)
	}
	if timeout.Timeout != 200*time.Millisecond {
		t.Fatalf("timeout = %s", timeout.Timeout)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("Close took %s", elapsed)
	}
}

func TestWriterCloseTimeoutWithHeldStderr(t *testing.T) {
	stubFFmpeg(t, "orphan")

	w, err := NewWriter(context.Background(), filepath.Join(t.TempDir(), "out.mp4"), 16, 16,
		WithCloseTimeout(200*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.WriteFrame(NewFrame(16, 16, 3)); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if w.cmd.WaitDelay != 200*time.Millisecond {
		t.Fatalf("WaitDelay = %s, want close timeout", w.cmd.WaitDelay)
	}

	start := time.Now()
	err = w.Close()
	var timeout *EncodeTimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("expected EncodeTimeoutError, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("Close took %s with stderr held open", elapsed)
	}
}

func TestWriterCloseRemovesLockFile(t *testing.T) {
	stubFFmpeg(t, "sink")

	output := filepath.Join(t.TempDir(), "out.mp4")
	w, err := NewWriter(context.Background(), output, 16, 16)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.WriteFrame(NewFrame(16, 16, 3)); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if _, err := os.Stat(output + ".lock"); err != nil {
		t.Fatalf("expected lock file while encoding: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(output + ".lock"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected lock file removed, got %v", err)
	}
	relock := flock.New(output + ".lock")
	locked, err := relock.TryLock()
	if err != nil || !locked {
		t.Fatalf("expected output lockable after Close, locked=%v err=%v", locked, err)
	}
	_ = relock.Unlock()
}

func TestWriterCloseWithoutFrames(t *testing.T) {
	spawned := stubFFmpeg(t, "sink")

	w, err := NewWriter(context.Background(), filepath.Join(t.TempDir(), "out.mp4"), 16, 16)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if spawned.Load() != 0 {
		t.Fatal("Close started ffmpeg")
	}
}

func TestNewWriterValidatesOptions(t *testing.T) {
	if _, err := NewWriter(context.Background(), "out.mp4", 0, 16); err == nil {
		t.Fatal("expected error for zero width")
	}
	if _, err := NewWriter(context.Background(), "out.mp4", 16, 16, WithCRF(52)); err == nil {
		t.Fatal("expected error for crf out of range")
	}
	if _, err := NewWriter(context.Background(), "out.mp4", 16, 16, WithInputPixelFormat(ffmpeg.PixFmtYUV420P)); err == nil {
		t.Fatal("expected error for planar input format")
	}
}
