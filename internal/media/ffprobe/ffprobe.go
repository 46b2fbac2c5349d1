package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strings"
)

var commandContext = exec.CommandContext

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
	raw     []byte
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index             int    `json:"index"`
	CodecName         string `json:"codec_name"`
	CodecType         string `json:"codec_type"`
	Width             int    `json:"width"`
	Height            int    `json:"height"`
	PixFmt            string `json:"pix_fmt"`
	BitsPerRawSample  string `json:"bits_per_raw_sample"`
	SampleAspectRatio string `json:"sample_aspect_ratio"`
	AvgFrameRate      string `json:"avg_frame_rate"`
	RFrameRate        string `json:"r_frame_rate"`
	NBFrames          string `json:"nb_frames"`
	Duration          string `json:"duration"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
}

// ProbeError reports an ffprobe failure: the tool exiting abnormally, output
// that is not JSON, or a container without a usable video stream.
type ProbeError struct {
	Path   string
	Reason string
	Output string
	Err    error
}

func (e *ProbeError) Error() string {
	var b strings.Builder
	b.WriteString("ffprobe ")
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	b.WriteString(e.Reason)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Output != "" {
		b.WriteString(": ")
		b.WriteString(e.Output)
	}
	return b.String()
}

func (e *ProbeError) Unwrap() error { return e.Err }

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, &ProbeError{Reason: "empty path"}
	}

	cmd := commandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path) //nolint:gosec
	var stderr strings.Builder
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return Result{}, &ProbeError{Path: path, Reason: "inspect", Output: strings.TrimSpace(stderr.String()), Err: err}
	}

	result, err := Parse(output)
	if err != nil {
		var perr *ProbeError
		if errors.As(err, &perr) {
			perr.Path = path
		}
		return Result{}, err
	}
	return result, nil
}

// Parse decodes captured ffprobe JSON.
func Parse(raw []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return Result{}, &ProbeError{Reason: "parse", Err: err}
	}
	result.raw = append([]byte(nil), raw...)
	return result, nil
}

// RawJSON returns the raw ffprobe JSON payload.
func (r Result) RawJSON() []byte {
	return append([]byte(nil), r.raw...)
}

// VideoStream returns the first stream whose codec type is video.
func (r Result) VideoStream() (Stream, bool) {
	for _, stream := range r.Streams {
		if stream.CodecType == "video" {
			return stream, true
		}
	}
	return Stream{}, false
}

// VideoStreamCount returns the number of video streams discovered.
func (r Result) VideoStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			count++
		}
	}
	return count
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			count++
		}
	}
	return count
}

// Probe inspects path and returns the metadata of its primary video stream.
func Probe(ctx context.Context, binary, path string) (Metadata, error) {
	result, err := Inspect(ctx, binary, path)
	if err != nil {
		return Metadata{}, err
	}
	return result.MetadataFor(path)
}

// MetadataFor is Metadata with errors and a missing container filename
// attributed to path.
func (r Result) MetadataFor(path string) (Metadata, error) {
	meta, err := r.Metadata()
	if err != nil {
		var perr *ProbeError
		if errors.As(err, &perr) && perr.Path == "" {
			perr.Path = path
		}
		return Metadata{}, err
	}
	if meta.filename == "" {
		meta.filename = path
	}
	return meta, nil
}
