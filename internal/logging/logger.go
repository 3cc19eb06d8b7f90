// Package logging configures the process-wide slog logger, following
// the reference family's internal/logging package: log to stdout and,
// optionally, a log file that each start appends to (it is never
// rotated), fanned out with io.MultiWriter.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Init builds the process logger. logDir == "" disables the file sink
// and logs to stdout only. The returned *os.File is nil in that case;
// callers should Close it on shutdown when non-nil.
func Init(logDir string, level slog.Level) (*slog.Logger, *os.File) {
	if logDir == "" {
		h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		return slog.New(h), nil
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		logger := slog.New(h)
		logger.Error("failed to create log directory; logging to stdout only", "dir", logDir, "error", err)
		return logger, nil
	}

	path := filepath.Join(logDir, "voltage-quality.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		logger := slog.New(h)
		logger.Error("failed to open log file; logging to stdout only", "path", path, "error", err)
		return logger, nil
	}

	mw := io.MultiWriter(f, os.Stdout)
	h := slog.NewJSONHandler(mw, &slog.HandlerOptions{Level: level})
	return slog.New(h), f
}
