// Package logger provides structured logging for the crypto-history pipeline
// using log/slog, with configurable level, format, and output, and rotating
// file support through lumberjack.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/klevvr/go-crypto-history/internal/config"
)

// nopCloser wraps writers that do not need closing (stdout, stderr).
type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// New creates a logger from the logging configuration. The returned closer
// owns the underlying writer and must be closed on shutdown when file output
// is configured.
func New(cfg config.LoggingConfig) (*slog.Logger, io.Closer, error) {
	writer, err := createWriter(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create log writer: %w", err)
	}

	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format(time.RFC3339Nano))
				}
			}
			return a
		},
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(writer, opts)
	default:
		handler = slog.NewTextHandler(writer, opts)
	}

	return slog.New(handler), writer, nil
}

// WithComponent returns a logger annotated with the component name, so log
// lines from the fetcher, builder, and exchange adapter stay distinguishable.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("component", component)
}

func createWriter(cfg config.LoggingConfig) (io.WriteCloser, error) {
	switch strings.ToLower(cfg.Output) {
	case "", "stderr":
		return nopCloser{os.Stderr}, nil
	case "stdout":
		return nopCloser{os.Stdout}, nil
	case "file":
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("file output requires a file path")
		}
		return &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    defaultInt(cfg.MaxSizeMB, 100),
			MaxBackups: defaultInt(cfg.MaxBackups, 3),
			MaxAge:     defaultInt(cfg.MaxAgeDays, 28),
			Compress:   true,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported log output: %s", cfg.Output)
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func defaultInt(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
