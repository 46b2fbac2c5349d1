package frames

import (
	"errors"
	"fmt"
	"io"
	"time"
)

var (
	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("frames: session closed")
	// ErrOutputLocked reports another writer holding the output file.
	ErrOutputLocked = errors.New("frames: output is locked by another writer")
)

// ShortReadError reports that ffmpeg's output ended before a full frame was
// delivered. It unwraps to io.EOF when the stream ended on a frame boundary
// and to io.ErrUnexpectedEOF otherwise.
type ShortReadError struct {
	Frame int
	Got   int
	Want  int
	// Detail is ffmpeg's last diagnostic line, when one was captured.
	Detail string
}

func (e *ShortReadError) Error() string {
	msg := fmt.Sprintf("short read on frame %d: got %d of %d bytes", e.Frame, e.Got, e.Want)
	if e.Detail != "" {
		msg += " (ffmpeg: " + e.Detail + ")"
	}
	return msg
}

func (e *ShortReadError) Unwrap() error {
	if e.Got == 0 {
		return io.EOF
	}
	return io.ErrUnexpectedEOF
}

// ShapeMismatchError reports a frame whose shape disagrees with the writer.
type ShapeMismatchError struct {
	WantHeight, WantWidth, WantChannels int
	Height, Width, Channels             int
	// Samples is set when the dimensions matched but the sample count did not.
	Samples int
}

func (e *ShapeMismatchError) Error() string {
	if e.Samples > 0 {
		return fmt.Sprintf("frame shape mismatch: %dx%dx%d frame carries %d samples, want %d",
			e.Height, e.Width, e.Channels, e.Samples, e.WantHeight*e.WantWidth*e.WantChannels)
	}
	return fmt.Sprintf("frame shape mismatch: got %dx%dx%d, want %dx%dx%d",
		e.Height, e.Width, e.Channels, e.WantHeight, e.WantWidth, e.WantChannels)
}

// EncodeTimeoutError reports that ffmpeg did not exit within the close
// timeout after its input was closed. The process is killed before this is
// returned.
type EncodeTimeoutError struct {
	Output  string
	Timeout time.Duration
}

func (e *EncodeTimeoutError) Error() string {
	return fmt.Sprintf("encode %s: ffmpeg did not exit within %s", e.Output, e.Timeout)
}
