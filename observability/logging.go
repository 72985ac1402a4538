// Package observability configures the structured logger every component
// of the writer logs through.
package observability

import (
	"log/slog"
	"os"
)

// NewLogger configures a TextHandler writing to stderr at level, tagged
// with component=pthc so its lines can be told apart from a caller's own
// logging when the writer is embedded as a library.
func NewLogger(level slog.Level) *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})

	return slog.New(handler).With("component", "pthc")
}
