package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// L is the process-wide logger. It is usable before Init.
var L = slog.Default()

// Init installs a JSON logger at the given level as L and as the slog
// default. Unknown levels fall back to info.
func Init(level string) {
	L = New(os.Stdout, level)
	slog.SetDefault(L)
	L.Info("logger initialized", "level", ParseLevel(level).String())
}

func New(w io.Writer, level string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format(time.RFC3339))
				}
			}
			return a
		},
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Discard is a logger for tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
