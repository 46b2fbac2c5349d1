package frames

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"

	"vidframes/internal/media/ffmpeg"
)

func TestReaderReadsExactFrame(t *testing.T) {
	stubFFmpeg(t, "frames", "FRAMES_HELPER_BYTES=3072")

	r, err := NewReader(context.Background(), "clip.mp4", WithProber(staticProber(t, 32, 32, 1, 8)))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })

	geom := r.Geometry()
	if geom.Width != 32 || geom.Height != 32 || geom.BytesPerSample != 1 || geom.FrameSize() != 3072 {
		t.Fatalf("unexpected geometry %+v", geom)
	}

	frame, err := r.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if h, w, c := frame.Dims(); h != 32 || w != 32 || c != 3 {
		t.Fatalf("dims = %dx%dx%d", h, w, c)
	}
	for i, v := range frame.Pix {
		if v != float64(i%251) {
			t.Fatalf("sample %d = %v, want %d", i, v, i%251)
		}
	}
	if r.FramesRead() != 1 {
		t.Fatalf("FramesRead = %d, want 1", r.FramesRead())
	}

	_, err = r.ReadFrame()
	var short *ShortReadError
	if !errors.As(err, &short) {
		t.Fatalf("expected ShortReadError after last frame, got %v", err)
	}
	if short.Got != 0 || !errors.Is(err, io.EOF) {
		t.Fatalf("expected clean EOF, got %+v", short)
	}
}

func TestReaderShortFrame(t *testing.T) {
	stubFFmpeg(t, "truncated", "FRAMES_HELPER_BYTES=3071")

	r, err := NewReader(context.Background(), "clip.mp4", WithProber(staticProber(t, 32, 32, 1, 8)))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })

	_, err = r.ReadFrame()
	var short *ShortReadError
	if !errors.As(err, &short) {
		t.Fatalf("expected ShortReadError, got %v", err)
	}
	if short.Frame != 0 || short.Got != 3071 || short.Want != 3072 {
		t.Fatalf("unexpected short read %+v", short)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected io.ErrUnexpectedEOF, got %v", err)
	}
	if r.FramesRead() != 0 {
		t.Fatalf("counter advanced on short read: %d", r.FramesRead())
	}
	if _, again := r.ReadFrame(); again != err {
		t.Fatalf("expected sticky failure, got %v", again)
	}
}

func TestReaderSixteenBitScaling(t *testing.T) {
	stubFFmpeg(t, "frames16", "FRAMES_HELPER_BYTES=6144")

	r, err := NewReader(context.Background(), "clip.mov", WithProber(staticProber(t, 32, 32, 1, 10)))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })

	if got := r.Geometry().PixelFormat; got != ffmpeg.PixFmtRGB48LE {
		t.Fatalf("pixel format = %q, want rgb48le", got)
	}
	frame, err := r.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	for i, v := range frame.Pix {
		if v != 255 {
			t.Fatalf("sample %d = %v, want 255", i, v)
		}
	}
}

func TestReaderDoesNotSpawnUntilRead(t *testing.T) {
	spawned := stubFFmpeg(t, "frames", "FRAMES_HELPER_BYTES=3072")

	r, err := NewReader(context.Background(), "clip.mp4", WithProber(staticProber(t, 32, 32, 1, 8)))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if spawned.Load() != 0 {
		t.Fatal("ffmpeg started before the first read")
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := r.ReadFrame(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if spawned.Load() != 0 {
		t.Fatal("ffmpeg started by Close")
	}
}

func TestReaderResolvesEndFrame(t *testing.T) {
	r, err := NewReader(context.Background(), "clip.mp4", WithProber(staticProber(t, 1920, 1080, 100, 8)))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	args := strings.Join(r.Args(), " ")
	if !strings.Contains(args, "-vframes 100") {
		t.Fatalf("expected full-length -vframes, got %q", args)
	}
	if !strings.Contains(args, "-vf scale=1920:1088") {
		t.Fatalf("expected aligned scale filter, got %q", args)
	}

	r, err = NewReader(context.Background(), "clip.mp4",
		WithProber(staticProber(t, 1920, 1080, 100, 8)),
		WithStartFrame(48),
		WithEndFrame(71),
		WithDownscale(2),
	)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	args = strings.Join(r.Args(), " ")
	for _, want := range []string{"-ss 2.0", "-vframes 24", "scale=960:544"} {
		if !strings.Contains(args, want) {
			t.Fatalf("expected %q in %q", want, args)
		}
	}
	if r.FrameCount() != 24 {
		t.Fatalf("FrameCount = %d, want 24", r.FrameCount())
	}
}

func TestReaderRejectsInvalidInput(t *testing.T) {
	if _, err := NewReader(context.Background(), "clip.mp4", WithProber(staticProber(t, 32, 32, 0, 8))); !errors.Is(err, ffmpeg.ErrInvalidVideo) {
		t.Fatalf("expected ErrInvalidVideo for zero frames, got %v", err)
	}
	if _, err := NewReader(context.Background(), "clip.mp4",
		WithProber(staticProber(t, 32, 32, 10, 8)), WithDownscale(-1)); !errors.Is(err, ffmpeg.ErrInvalidOptions) {
		t.Fatalf("expected ErrInvalidOptions for negative downscale, got %v", err)
	}
	if _, err := NewReader(context.Background(), "clip.mp4",
		WithProber(staticProber(t, 32, 32, 10, 8)), WithStartFrame(-2)); !errors.Is(err, ffmpeg.ErrInvalidOptions) {
		t.Fatalf("expected ErrInvalidOptions for negative start, got %v", err)
	}
	if _, err := NewReader(context.Background(), "clip.mp4",
		WithProber(staticProber(t, 64, 64, 3, 8)), WithDownscale(1e-7)); !errors.Is(err, ffmpeg.ErrInvalidOptions) {
		t.Fatalf("expected ErrInvalidOptions for oversized output, got %v", err)
	}
	if _, err := NewReader(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestReaderAllStopsAtFrameBoundary(t *testing.T) {
	// Container claims three frames; the stream carries two.
	stubFFmpeg(t, "frames", "FRAMES_HELPER_BYTES=6144")

	r, err := NewReader(context.Background(), "clip.mp4", WithProber(staticProber(t, 32, 32, 3, 8)))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })

	var count int
	for frame, err := range r.All() {
		if err != nil {
			t.Fatalf("All: %v", err)
		}
		if frame == nil {
			t.Fatal("nil frame")
		}
		count++
	}
	if count != 2 {
		t.Fatalf("iterated %d frames, want 2", count)
	}
}

func TestReaderAllYieldsPartialFrameError(t *testing.T) {
	stubFFmpeg(t, "truncated", "FRAMES_HELPER_BYTES=4000")

	r, err := NewReader(context.Background(), "clip.mp4", WithProber(staticProber(t, 32, 32, 2, 8)))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })

	var frames int
	var errs []error
	for _, err := range r.All() {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		frames++
	}
	if frames != 1 || len(errs) != 1 {
		t.Fatalf("frames=%d errs=%v", frames, errs)
	}
	var short *ShortReadError
	if !errors.As(errs[0], &short) || short.Frame != 1 || short.Got != 928 {
		t.Fatalf("unexpected error %v", errs[0])
	}
}

func TestDecodeSamples(t *testing.T) {
	dst := make([]float64, 3)
	decodeSamples(dst, []byte{0x00, 0x00, 0x01, 0x01, 0xff, 0xff}, 2, 1.0/sixteenBitDivisor)
	want := []float64{0, 1, 255}
	if !slices.Equal(dst, want) {
		t.Fatalf("16-bit samples = %v, want %v", dst, want)
	}

	decodeSamples(dst, []byte{7, 128, 255}, 1, 1)
	if !slices.Equal(dst, []float64{7, 128, 255}) {
		t.Fatalf("8-bit samples = %v", dst)
	}
}
