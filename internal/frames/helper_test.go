package frames

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"vidframes/internal/media/ffprobe"
)

// stubFFmpeg routes subprocesses to TestHelperProcess and counts spawns.
func stubFFmpeg(t *testing.T, mode string, env ...string) *atomic.Int32 {
	t.Helper()
	var spawned atomic.Int32
	original := commandContext
	commandContext = func(ctx context.Context, _ string, _ ...string) *exec.Cmd {
		spawned.Add(1)
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "FRAMES_HELPER_MODE="+mode)
		cmd.Env = append(cmd.Env, env...)
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
	return &spawned
}

func staticProber(t *testing.T, width, height, frames, bits int) Prober {
	t.Helper()
	raw := fmt.Sprintf(`{
  "streams": [{"index": 0, "codec_type": "video", "codec_name": "h264",
    "width": %d, "height": %d, "bits_per_raw_sample": "%d",
    "sample_aspect_ratio": "1:1", "avg_frame_rate": "24/1", "nb_frames": "%d"}],
  "format": {"filename": "clip.mp4", "format_name": "mov,mp4,m4a,3gp,3g2,mj2"}
}`, width, height, bits, frames)
	result, err := ffprobe.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse stub metadata: %v", err)
	}
	meta, err := result.Metadata()
	if err != nil {
		t.Fatalf("stub metadata: %v", err)
	}
	return func(context.Context, string) (ffprobe.Metadata, error) {
		return meta, nil
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	size, _ := strconv.Atoi(os.Getenv("FRAMES_HELPER_BYTES"))
	switch os.Getenv("FRAMES_HELPER_MODE") {
	case "frames":
		buf := make([]byte, size)
		for i := range buf {
			buf[i] = byte(i % 251)
		}
		_, _ = os.Stdout.Write(buf)
		os.Exit(0)
	case "frames16":
		buf := make([]byte, size)
		for i := range buf {
			buf[i] = 0xff
		}
		_, _ = os.Stdout.Write(buf)
		os.Exit(0)
	case "truncated":
		fmt.Fprintln(os.Stderr, "Error while decoding stream #0:0: Invalid data found when processing input")
		_, _ = os.Stdout.Write(make([]byte, size))
		os.Exit(1)
	case "sink":
		n, _ := io.Copy(io.Discard, os.Stdin)
		_ = os.WriteFile(os.Getenv("FRAMES_HELPER_OUT"), []byte(strconv.FormatInt(n, 10)), 0o644)
		os.Exit(0)
	case "sinkfail":
		_, _ = io.Copy(io.Discard, os.Stdin)
		fmt.Fprintln(os.Stderr, "Conversion failed!")
		os.Exit(1)
	case "orphan":
		// A descendant keeps the stderr pipe open after this process dies.
		child := exec.Command(os.Args[0], "-test.run=TestHelperProcess")
		child.Env = append(os.Environ(), "FRAMES_HELPER_MODE=linger")
		child.Stderr = os.Stderr
		if err := child.Start(); err != nil {
			os.Exit(3)
		}
		_, _ = io.Copy(io.Discard, os.Stdin)
		time.Sleep(30 * time.Second)
		os.Exit(0)
	case "linger":
		time.Sleep(5 * time.Second)
		os.Exit(0)
	case "stall":
		_, _ = io.Copy(io.Discard, os.Stdin)
		time.Sleep(30 * time.Second)
		os.Exit(0)
	default:
		os.Exit(0)
	}
}
