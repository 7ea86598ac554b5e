// Package logging configures the process wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/haevelyn/schedule/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup installs the default logger. Output goes to stderr, and also to a
// rotating file when cfg.File is set. The returned Closer closes that file.
func Setup(cfg config.LoggingConfig, debugMode bool) io.Closer {
	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if cfg.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		w = io.MultiWriter(os.Stderr, rotating)
		closer = rotating
	}

	slog.SetDefault(slog.New(NewHandler(w, debugMode)))
	return closer
}

// NewHandler returns the text handler used by every binary.
func NewHandler(w io.Writer, debugMode bool) slog.Handler {
	logLevel := slog.LevelInfo
	if debugMode {
		logLevel = slog.LevelDebug
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: true,
	})
}
