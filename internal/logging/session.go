package logging

import (
	"log/slog"

	"github.com/google/uuid"
)

// NewSessionLogger tags logger with a component and a fresh session ID so
// every line from one decode or encode session can be correlated. It returns
// the logger and the generated ID.
func NewSessionLogger(logger *slog.Logger, component string) (*slog.Logger, string) {
	id := uuid.NewString()
	return NewComponentLogger(logger, component).With(String(FieldSessionID, id)), id
}
