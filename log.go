package vitamin

import (
	"context"
	"io"
	"os"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/slog"
)

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger installs the package logger. Nil restores the silent default.
//
// Levels:
//   - Debug: per-frame pacing and per-resource creation
//   - Info: lifecycle (device picked, swapchain built or rebuilt, shutdown)
//   - Warn: missing optional layers/extensions, validation warnings
//   - Error: validation errors
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the package logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// NewLogger builds a text logger for cfg. When cfg.LogFile is set, output goes
// to both stderr and the file; the returned closer releases the file.
func NewLogger(cfg Config) (*slog.Logger, io.Closer, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, nil, errors.Wrapf(err, "log level %q", cfg.LogLevel)
	}

	var (
		out    io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if cfg.LogFile != "" {
		file, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		if err != nil {
			return nil, nil, errors.Wrap(err, "open log file")
		}
		out = io.MultiWriter(os.Stderr, file)
		closer = file
	}

	l := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	return l.With(slog.String("app", cfg.AppName)), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
