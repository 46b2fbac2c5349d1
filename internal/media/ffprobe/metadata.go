package ffprobe

import (
	"strconv"
	"strings"

	"vidframes/internal/media/rational"
)

const defaultBitsPerSample = 8

// frameRateFields selects the authoritative frame-rate field per container
// format. Formats not listed use avg_frame_rate.
var frameRateFields = map[string]func(Stream) string{
	"mxf": func(s Stream) string { return s.RFrameRate },
}

func defaultFrameRateField(s Stream) string { return s.AvgFrameRate }

// Metadata is the validated, read-only view of a file's primary video stream.
type Metadata struct {
	stream        Stream
	formatName    string
	filename      string
	bitsPerSample int
	sar           rational.Rational
	frameCount    int
	frameRate     rational.Rational
	hasFrameRate  bool
}

// Metadata locates the first video stream and converts its fields.
func (r Result) Metadata() (Metadata, error) {
	stream, ok := r.VideoStream()
	if !ok {
		return Metadata{}, &ProbeError{Reason: "no video stream found"}
	}

	meta := Metadata{
		stream:     stream,
		formatName: strings.TrimSpace(r.Format.FormatName),
		filename:   strings.TrimSpace(r.Format.Filename),
		sar:        rational.Unit,
	}

	bits, err := parseOptionalInt(stream.BitsPerRawSample, defaultBitsPerSample)
	if err != nil {
		return Metadata{}, &ProbeError{Reason: "bits_per_raw_sample", Err: err}
	}
	meta.bitsPerSample = bits

	frames, err := parseOptionalInt(stream.NBFrames, 0)
	if err != nil {
		return Metadata{}, &ProbeError{Reason: "nb_frames", Err: err}
	}
	meta.frameCount = frames

	if value := strings.TrimSpace(stream.SampleAspectRatio); !isUnset(value) {
		sar, err := rational.Parse(value)
		if err != nil {
			return Metadata{}, &ProbeError{Reason: "sample_aspect_ratio", Err: err}
		}
		// ffprobe reports 0:1 when the aspect ratio is unknown.
		if sar.Num > 0 {
			meta.sar = sar
		}
	}

	field := defaultFrameRateField
	if selected, ok := frameRateFields[meta.formatName]; ok {
		field = selected
	}
	if value := strings.TrimSpace(field(stream)); !isUnset(value) && value != "0/0" {
		rate, err := rational.Parse(value)
		if err != nil {
			return Metadata{}, &ProbeError{Reason: "frame rate", Err: err}
		}
		if rate.Num > 0 {
			meta.frameRate = rate
			meta.hasFrameRate = true
		}
	}

	return meta, nil
}

// Stream returns the underlying ffprobe stream entry.
func (m Metadata) Stream() Stream { return m.stream }

// Width returns the coded width in pixels.
func (m Metadata) Width() int { return m.stream.Width }

// Height returns the coded height in pixels.
func (m Metadata) Height() int { return m.stream.Height }

// FrameCount returns nb_frames, or 0 when the container does not report it.
func (m Metadata) FrameCount() int { return m.frameCount }

// BitsPerSample returns bits_per_raw_sample, defaulting to 8.
func (m Metadata) BitsPerSample() int { return m.bitsPerSample }

// SampleAspectRatio returns the pixel aspect ratio, defaulting to 1/1.
func (m Metadata) SampleAspectRatio() rational.Rational { return m.sar }

// FormatName returns the container format name reported by ffprobe.
func (m Metadata) FormatName() string { return m.formatName }

// Filename returns the path ffprobe opened.
func (m Metadata) Filename() string { return m.filename }

// FrameRate returns the container's authoritative frame rate; ok is false when
// the selected field is absent.
func (m Metadata) FrameRate() (rate rational.Rational, ok bool) {
	return m.frameRate, m.hasFrameRate
}

func parseOptionalInt(value string, fallback int) (int, error) {
	cleaned := strings.TrimSpace(value)
	if isUnset(cleaned) {
		return fallback, nil
	}
	return strconv.Atoi(cleaned)
}

func isUnset(value string) bool {
	return value == "" || strings.EqualFold(value, "N/A")
}
