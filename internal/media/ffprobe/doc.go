// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// This package has no vidframes-specific dependencies and could be extracted
// as a standalone library.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video/subtitle stream properties
//   - Format: container-level metadata (format name, filename)
//   - Metadata: validated view of the primary video stream
//
// Primary entry points:
//   - Inspect: executes ffprobe and returns parsed Result
//   - Parse: decodes previously captured ffprobe JSON
//
// Result.Metadata locates the first video stream and converts its string
// fields into typed values (dimensions, frame count, bit depth, sample aspect
// ratio, frame rate).
package ffprobe
