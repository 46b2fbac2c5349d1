package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"vidframes/internal/media/ffmpeg"
)

// Video describes the clip the stub binaries pretend to serve.
type Video struct {
	Width  int
	Height int
	Frames int
	// Bits is bits_per_raw_sample; zero reports 8.
	Bits int
}

const ffprobeScript = `#!/bin/sh
if [ "$1" = "-version" ]; then
  echo "ffprobe version stub"
  exit 0
fi
for a; do last=$a; done
if [ ! -e "$last" ]; then
  echo "$last: No such file or directory" >&2
  exit 1
fi
cat <<JSON
{"streams":[{"index":0,"codec_type":"video","codec_name":"h264","width":%d,"height":%d,
"bits_per_raw_sample":"%d","sample_aspect_ratio":"1:1","avg_frame_rate":"24/1","nb_frames":"%d"}],
"format":{"filename":"$last","format_name":"mov,mp4,m4a,3gp,3g2,mj2"}}
JSON
`

// The ffmpeg stub emits zeroed raw frames when the output is stdout and
// otherwise copies stdin into the output file, so tests can count bytes.
const ffmpegScript = `#!/bin/sh
case "$1" in
  -version) echo "ffmpeg version stub"; exit 0 ;;
  -hide_banner) echo " V....D libx264              libx264 H.264 / AVC"; exit 0 ;;
esac
frames=%d
prev=""
for a; do
  if [ "$prev" = "-vframes" ]; then frames=$a; fi
  prev=$a
  last=$a
done
if [ "$last" = "-" ]; then
  head -c $((frames * %d)) /dev/zero
else
  cat > "$last"
fi
`

// WithStubbedFFmpeg writes ffmpeg and ffprobe scripts that serve video and
// points the config at them. Decoded frames use the aligned geometry of an
// unscaled decode.
func WithStubbedFFmpeg(video Video) ConfigOption {
	return func(b *configBuilder) {
		b.t.Helper()
		bits := video.Bits
		if bits == 0 {
			bits = 8
		}
		bytesPerSample := 1
		if bits > 8 {
			bytesPerSample = 2
		}
		frameSize := ffmpeg.AlignUp16(video.Width) * ffmpeg.AlignUp16(video.Height) * 3 * bytesPerSample

		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		b.cfg.FFmpeg.FFprobeBinary = writeStub(b.t, binDir, "ffprobe",
			fmt.Sprintf(ffprobeScript, video.Width, video.Height, bits, video.Frames))
		b.cfg.FFmpeg.FFmpegBinary = writeStub(b.t, binDir, "ffmpeg",
			fmt.Sprintf(ffmpegScript, video.Frames, frameSize))
	}
}

func writeStub(t testing.TB, dir, name, script string) string {
	t.Helper()
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}

// WriteFile creates path with data, making parent directories as needed.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
