// Package logging sets up the structured file logger. Console output is the
// report package's job; the log file carries the machine-readable record of
// what each stage ran and why it was classified the way it was.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Setup opens <root>/.envboot/logs/envboot.log and returns a JSON slog
// logger writing to it, plus a cleanup closing the file.
//
// Logging must never block bootstrapping: on any setup failure the returned
// logger discards records and the error is advisory.
func Setup(root string, verbose bool) (*slog.Logger, func() error, error) {
	discard := slog.New(slog.NewJSONHandler(io.Discard, nil))
	noop := func() error { return nil }

	dir := filepath.Join(root, ".envboot", "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return discard, noop, err
	}

	path := filepath.Join(dir, "envboot.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return discard, noop, err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	h := slog.NewJSONHandler(f, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
				a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339Nano))
			}
			return a
		},
	})

	l := slog.New(h)
	l.Info("logger.initialized", "path", path, "verbose", verbose)

	cleanup := func() error { return f.Close() }
	return l, cleanup, nil
}
