package ffmpeg

import "strings"

// Pixel formats used on the raw pipe.
const (
	PixFmtRGB24   = "rgb24"
	PixFmtRGB48LE = "rgb48le"
	PixFmtBGR24   = "bgr24"
	PixFmtYUV420P = "yuv420p"
)

var packedChannels = map[string]int{
	"gray":  1,
	"rgb24": 3,
	"bgr24": 3,
	"rgba":  4,
	"bgra":  4,
	"argb":  4,
	"abgr":  4,
}

// PackedChannels reports the interleaved 8-bit channel count of a packed
// pixel format accepted on the encoder's raw input.
func PackedChannels(pixFmt string) (int, bool) {
	n, ok := packedChannels[strings.ToLower(strings.TrimSpace(pixFmt))]
	return n, ok
}
