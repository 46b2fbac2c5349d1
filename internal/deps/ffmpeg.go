package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"

	"vidframes/internal/config"
)

// H264Encoder is the ffmpeg encoder the frame writer requests.
const H264Encoder = "libx264"

// Requirements lists the external tools a configuration depends on.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpeg.FFmpegBinary,
			Description: "Decodes frames to raw video and encodes H.264",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFmpeg.FFprobeBinary,
			Description: "Reads stream metadata before decoding",
		},
	}
}

// CheckEncoder reports whether ffmpegBinary was built with the named encoder.
func CheckEncoder(ctx context.Context, ffmpegBinary, encoder string) Status {
	status := Status{
		Name:        "FFmpeg " + encoder,
		Command:     ffmpegBinary,
		Description: "Encoder used for frame writing",
		Optional:    true,
	}
	out, err := commandContext(ctx, ffmpegBinary, "-hide_banner", "-encoders").Output()
	if err != nil {
		status.Detail = fmt.Sprintf("list encoders: %v", err)
		return status
	}
	if hasEncoder(out, encoder) {
		status.Available = true
		return status
	}
	status.Detail = fmt.Sprintf("encoder %q not available in this ffmpeg build", encoder)
	return status
}

// hasEncoder scans `ffmpeg -encoders` output, whose rows look like
// " V....D libx264              libx264 H.264 / AVC ...".
func hasEncoder(listing []byte, encoder string) bool {
	scanner := bufio.NewScanner(bytes.NewReader(listing))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[1] == encoder {
			return true
		}
	}
	return false
}
