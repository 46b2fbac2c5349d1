// Package logging assembles structured slog loggers and formatting helpers used
// across vidframes.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes helpers so decode and encode sessions tag log lines
// with a component and session ID. LineWriter adapts a logger into an
// io.Writer so subprocess diagnostics (ffmpeg's stderr) land in the same
// stream. The package also provides a no-op logger for tests and library
// callers that do not configure logging.
package logging
