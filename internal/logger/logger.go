// Package logger builds the application's slog logger.
package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/sevigo/repo-sentinel/internal/config"
)

// New initializes a slog logger from the logging configuration. An
// unparseable level falls back to info.
func New(cfg config.LoggerConfig, output io.Writer) *slog.Logger {
	if output == nil {
		switch cfg.Output {
		case "stderr":
			output = os.Stderr
		default:
			output = os.Stdout
		}
	}

	level := new(slog.Level)
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		*level = slog.LevelInfo
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, &slog.HandlerOptions{Level: level})
	default:
		handler = slog.NewTextHandler(output, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}
