package ffmpeg

import (
	"errors"
	"slices"
	"testing"

	"vidframes/internal/media/ffprobe"
)

func testMetadata(t *testing.T, stream ffprobe.Stream, formatName string) ffprobe.Metadata {
	t.Helper()
	stream.CodecType = "video"
	result := ffprobe.Result{
		Streams: []ffprobe.Stream{stream},
		Format:  ffprobe.Format{Filename: "/media/in.mov", FormatName: formatName},
	}
	meta, err := result.Metadata()
	if err != nil {
		t.Fatalf("Metadata returned error: %v", err)
	}
	return meta
}

func hd(frames string) ffprobe.Stream {
	return ffprobe.Stream{Width: 1920, Height: 1080, AvgFrameRate: "24/1", NBFrames: frames}
}

func argValue(args []string, flag string) (string, bool) {
	idx := slices.Index(args, flag)
	if idx < 0 || idx+1 >= len(args) {
		return "", false
	}
	return args[idx+1], true
}

func TestDecodeArgsAlignsAndScales(t *testing.T) {
	meta := testMetadata(t, hd("240"), "mov,mp4,m4a,3gp,3g2,mj2")
	dec, err := DecodeArgs(meta, DefaultDecodeOptions())
	if err != nil {
		t.Fatalf("DecodeArgs returned error: %v", err)
	}
	if dec.Geometry.Width != 1920 || dec.Geometry.Height != 1088 {
		t.Fatalf("unexpected aligned dims %dx%d", dec.Geometry.Width, dec.Geometry.Height)
	}
	if !dec.Scaled {
		t.Fatal("expected scale filter for 1080-line source")
	}
	want := []string{"-i", "/media/in.mov", "-vf", "scale=1920:1088", "-pix_fmt", "rgb24", "-f", "rawvideo", "-"}
	if !slices.Equal(dec.Args, want) {
		t.Fatalf("unexpected args:\n got %v\nwant %v", dec.Args, want)
	}
	if dec.Geometry.FrameSize() != 1920*1088*3 {
		t.Fatalf("unexpected frame size %d", dec.Geometry.FrameSize())
	}
	if dec.Frames != 240 {
		t.Fatalf("expected all frames, got %d", dec.Frames)
	}
}

func TestDecodeArgsSkipsScaleWhenAligned(t *testing.T) {
	stream := ffprobe.Stream{Width: 1280, Height: 720, NBFrames: "10"}
	dec, err := DecodeArgs(testMetadata(t, stream, "mov"), DefaultDecodeOptions())
	if err != nil {
		t.Fatalf("DecodeArgs returned error: %v", err)
	}
	if dec.Scaled {
		t.Fatal("expected no scaling for aligned source")
	}
	if slices.Contains(dec.Args, "-vf") {
		t.Fatalf("unexpected scale filter in %v", dec.Args)
	}
}

func TestDecodeArgsSeeksFromStartFrame(t *testing.T) {
	opts := DefaultDecodeOptions()
	opts.StartFrame = 48
	dec, err := DecodeArgs(testMetadata(t, hd("240"), "mov"), opts)
	if err != nil {
		t.Fatalf("DecodeArgs returned error: %v", err)
	}
	if v, ok := argValue(dec.Args, "-ss"); !ok || v != "2.0" {
		t.Fatalf("expected -ss 2.0, got %q (present=%v)", v, ok)
	}
	if dec.Seek != 2.0 {
		t.Fatalf("unexpected seek %v", dec.Seek)
	}
	if slices.Contains(dec.Args, "-vframes") {
		t.Fatalf("did not expect -vframes without an end frame: %v", dec.Args)
	}
	if slices.Index(dec.Args, "-ss") < slices.Index(dec.Args, "-i") {
		t.Fatalf("expected output seek after input: %v", dec.Args)
	}
}

func TestDecodeArgsSeekUsesFractionalRate(t *testing.T) {
	stream := hd("240")
	stream.AvgFrameRate = "48/1"
	opts := DefaultDecodeOptions()
	opts.StartFrame = 24
	dec, err := DecodeArgs(testMetadata(t, stream, "mov"), opts)
	if err != nil {
		t.Fatalf("DecodeArgs returned error: %v", err)
	}
	if v, _ := argValue(dec.Args, "-ss"); v != "0.5" {
		t.Fatalf("expected -ss 0.5, got %q", v)
	}
}

func TestDecodeArgsClampsEndFrame(t *testing.T) {
	opts := DefaultDecodeOptions()
	opts.StartFrame = 10
	opts.EndFrameInclusive = 500
	dec, err := DecodeArgs(testMetadata(t, hd("100"), "mov"), opts)
	if err != nil {
		t.Fatalf("DecodeArgs returned error: %v", err)
	}
	if v, _ := argValue(dec.Args, "-vframes"); v != "90" {
		t.Fatalf("expected -vframes 90, got %q", v)
	}
	if dec.Frames != 90 {
		t.Fatalf("unexpected frame count %d", dec.Frames)
	}
}

func TestDecodeArgsEndFrameWithoutStart(t *testing.T) {
	opts := DefaultDecodeOptions()
	opts.EndFrameInclusive = 0
	dec, err := DecodeArgs(testMetadata(t, hd("100"), "mov"), opts)
	if err != nil {
		t.Fatalf("DecodeArgs returned error: %v", err)
	}
	if v, _ := argValue(dec.Args, "-vframes"); v != "1" {
		t.Fatalf("expected -vframes 1, got %q", v)
	}
	if slices.Contains(dec.Args, "-ss") {
		t.Fatalf("did not expect seek for start frame 0: %v", dec.Args)
	}
}

func TestDecodeArgsHighBitDepth(t *testing.T) {
	stream := hd("10")
	stream.BitsPerRawSample = "10"
	dec, err := DecodeArgs(testMetadata(t, stream, "mov"), DefaultDecodeOptions())
	if err != nil {
		t.Fatalf("DecodeArgs returned error: %v", err)
	}
	if dec.Geometry.PixelFormat != PixFmtRGB48LE || dec.Geometry.BytesPerSample != 2 {
		t.Fatalf("expected rgb48le/2 bytes, got %s/%d", dec.Geometry.PixelFormat, dec.Geometry.BytesPerSample)
	}
	if v, _ := argValue(dec.Args, "-pix_fmt"); v != "rgb48le" {
		t.Fatalf("unexpected pix_fmt %q", v)
	}
}

func TestDecodeArgsCorrectsNonSquarePixels(t *testing.T) {
	stream := ffprobe.Stream{Width: 720, Height: 480, SampleAspectRatio: "8:9", NBFrames: "10"}
	dec, err := DecodeArgs(testMetadata(t, stream, "mpeg"), DefaultDecodeOptions())
	if err != nil {
		t.Fatalf("DecodeArgs returned error: %v", err)
	}
	if dec.Geometry.SourceWidth != 640 {
		t.Fatalf("expected corrected width 640, got %d", dec.Geometry.SourceWidth)
	}
	if dec.Scaled {
		t.Fatalf("expected 640x480 to need no scaling: %v", dec.Args)
	}

	stream.SampleAspectRatio = "16:11"
	dec, err = DecodeArgs(testMetadata(t, stream, "mpeg"), DefaultDecodeOptions())
	if err != nil {
		t.Fatalf("DecodeArgs returned error: %v", err)
	}
	if dec.Geometry.SourceWidth != 1048 || dec.Geometry.Width != 1056 {
		t.Fatalf("expected 1048 -> 1056, got %d -> %d", dec.Geometry.SourceWidth, dec.Geometry.Width)
	}
	if v, _ := argValue(dec.Args, "-vf"); v != "scale=1056:480" {
		t.Fatalf("unexpected filter %q", v)
	}
}

func TestDecodeArgsDownscale(t *testing.T) {
	opts := DefaultDecodeOptions()
	opts.Downscale = 2
	dec, err := DecodeArgs(testMetadata(t, hd("10"), "mov"), opts)
	if err != nil {
		t.Fatalf("DecodeArgs returned error: %v", err)
	}
	if dec.Geometry.Width != 960 || dec.Geometry.Height != 544 {
		t.Fatalf("unexpected downscaled dims %dx%d", dec.Geometry.Width, dec.Geometry.Height)
	}
	if v, _ := argValue(dec.Args, "-vf"); v != "scale=960:544" {
		t.Fatalf("unexpected filter %q", v)
	}
}

func TestDecodeArgsZeroDownscaleMeansFullSize(t *testing.T) {
	opts := DefaultDecodeOptions()
	opts.Downscale = 0
	dec, err := DecodeArgs(testMetadata(t, hd("10"), "mov"), opts)
	if err != nil {
		t.Fatalf("DecodeArgs returned error: %v", err)
	}
	if dec.Geometry.Width != 1920 {
		t.Fatalf("unexpected width %d", dec.Geometry.Width)
	}
}

func TestDecodeArgsErrors(t *testing.T) {
	cases := []struct {
		name   string
		stream ffprobe.Stream
		opts   DecodeOptions
		want   error
	}{
		{"zero frames", hd("0"), DefaultDecodeOptions(), ErrInvalidVideo},
		{"missing frames", hd(""), DefaultDecodeOptions(), ErrInvalidVideo},
		{"seek without rate", ffprobe.Stream{Width: 64, Height: 64, NBFrames: "10"}, DecodeOptions{Downscale: 1, StartFrame: 2, EndFrameInclusive: NoEndFrame}, ErrInvalidVideo},
		{"negative start", hd("10"), DecodeOptions{Downscale: 1, StartFrame: -1, EndFrameInclusive: NoEndFrame}, ErrInvalidOptions},
		{"negative downscale", hd("10"), DecodeOptions{Downscale: -2, EndFrameInclusive: NoEndFrame}, ErrInvalidOptions},
		{"end before start", hd("10"), DecodeOptions{Downscale: 1, StartFrame: 5, EndFrameInclusive: 2}, ErrInvalidOptions},
		{"tiny downscale", hd("10"), DecodeOptions{Downscale: 1e-7, EndFrameInclusive: NoEndFrame}, ErrInvalidOptions},
		{"denormal downscale", hd("10"), DecodeOptions{Downscale: 1e-300, EndFrameInclusive: NoEndFrame}, ErrInvalidOptions},
		{"huge downscale", hd("10"), DecodeOptions{Downscale: 1e9, EndFrameInclusive: NoEndFrame}, ErrInvalidOptions},
		{"zero width", ffprobe.Stream{Height: 64, AvgFrameRate: "24/1", NBFrames: "10"}, DefaultDecodeOptions(), ErrInvalidOptions},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeArgs(testMetadata(t, tc.stream, "mov"), tc.opts)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestFormatSeconds(t *testing.T) {
	cases := map[float64]string{
		2:      "2.0",
		0.5:    "0.5",
		41.875: "41.875",
	}
	for in, want := range cases {
		if got := formatSeconds(in); got != want {
			t.Fatalf("formatSeconds(%v) = %q, want %q", in, got, want)
		}
	}
}
