package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
)

const maxPendingLine = 64 * 1024

// LineWriter is an io.Writer that logs each complete line it receives. It is
// meant for subprocess stderr: assign it to exec.Cmd.Stderr and call Flush
// after Wait to emit a trailing partial line.
type LineWriter struct {
	mu      sync.Mutex
	logger  *slog.Logger
	level   slog.Level
	msg     string
	pending bytes.Buffer
	last    string
}

// NewLineWriter logs lines as msg with the line text under the "line" key.
func NewLineWriter(logger *slog.Logger, level slog.Level, msg string) *LineWriter {
	if logger == nil {
		logger = NewNop()
	}
	return &LineWriter{logger: logger, level: level, msg: msg}
}

func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending.Write(p)
	for {
		data := w.pending.Bytes()
		idx := bytes.IndexAny(data, "\r\n")
		if idx < 0 {
			break
		}
		w.emit(string(data[:idx]))
		w.pending.Next(idx + 1)
	}
	// ffmpeg progress lines can run long without a newline.
	if w.pending.Len() > maxPendingLine {
		w.emit(w.pending.String())
		w.pending.Reset()
	}
	return len(p), nil
}

// Flush logs any buffered partial line.
func (w *LineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending.Len() > 0 {
		w.emit(w.pending.String())
		w.pending.Reset()
	}
}

// LastLine returns the most recent non-empty line, useful in error messages.
func (w *LineWriter) LastLine() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

func (w *LineWriter) emit(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	w.last = line
	w.logger.Log(context.Background(), w.level, w.msg, slog.String("line", line))
}
