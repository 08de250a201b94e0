package testhelpers

import (
	"io"
	"log/slog"

	"github.com/myrjola/gympal/internal/logging"
)

// NewLogger logs everything down to debug level as text to sink, with context attributes attached.
func NewLogger(sink io.Writer) *slog.Logger {
	return slog.New(logging.NewContextHandler(slog.NewTextHandler(sink, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	})))
}
