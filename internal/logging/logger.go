package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	"quicklook/internal/services"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string // auto, console, or json
	Writer io.Writer
}

// New constructs a slog logger using the provided options. Format "auto"
// picks the pretty console handler when the writer is a terminal and JSON
// otherwise.
func New(opts Options) (*slog.Logger, error) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "auto"
	}
	if format == "auto" {
		if writerIsTerminal(w) {
			format = "console"
		} else {
			format = "json"
		}
	}

	var handler slog.Handler
	switch format {
	case "console":
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
		})
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	return slog.New(handler), nil
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log level: unsupported value %q", level)
	}
}

func writerIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// WithRunID returns a logger annotated with a run correlation identifier.
func WithRunID(logger *slog.Logger, runID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("run_id", runID))
}

// WithContext returns a logger annotated with whatever services context
// values (run ID, slot, amplifier, stage) are present on ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return nil
	}
	if id, ok := services.RunIDFromContext(ctx); ok {
		logger = logger.With(slog.String("run_id", id))
	}
	if slot, ok := services.SlotFromContext(ctx); ok {
		logger = logger.With(slog.String("slot", slot))
	}
	if amp, ok := services.AmpFromContext(ctx); ok {
		logger = logger.With(slog.String("amp", amp))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		logger = logger.With(slog.String("stage", stage))
	}
	return logger
}

// NopLogger returns a logger that discards everything; handy in tests and as
// a nil-safe default.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
