package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps slog with the engine's logging setup.
type Logger struct {
	*slog.Logger
	LogDir string
	Start  time.Time
}

// New creates a Logger writing JSON records. With a non-empty dir, output
// goes to a rotated file under dir; otherwise it goes to stderr.
func New(level string, dir string) *Logger {
	var w io.Writer = os.Stderr
	if dir != "" {
		w = &lumberjack.Logger{
			Filename:   filepath.Join(dir, "racedash.slog"),
			MaxSize:    64, // MB
			MaxAge:     14,
			MaxBackups: 2,
			Compress:   true,
		}
	}

	lvl := slog.LevelInfo
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		fmt.Fprintf(os.Stderr, "%s: invalid log level\n", level)
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	return &Logger{
		Logger: slog.New(h),
		LogDir: dir,
		Start:  time.Now(),
	}
}

// Discard returns a Logger that drops everything; used in tests.
func Discard() *Logger {
	h := slog.NewJSONHandler(io.Discard, nil)
	return &Logger{Logger: slog.New(h), Start: time.Now()}
}
