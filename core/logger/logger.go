package logger

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/josephlewis42/pipesh/core/config"
)

// Prefix is shown in front of every text log line.
const Prefix = "pipesh"

// New creates a logger writing to w with the configured level and format.
func New(w io.Writer, cfg config.Logging) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("logging.level: %w", err)
	}

	var formatter log.Formatter
	switch cfg.Format {
	case "", "text":
		formatter = log.TextFormatter
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	default:
		return nil, fmt.Errorf("logging.format: unknown format %q", cfg.Format)
	}

	return log.NewWithOptions(w, log.Options{
		Level:     level,
		Formatter: formatter,
		Prefix:    Prefix,
	}), nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
