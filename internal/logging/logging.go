// Package logging builds the zap logger used across logreader.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"logreader/internal/config"
)

// New builds a logger from cfg. When cfg.File is set logs are appended to
// that file, otherwise they go to fallback. A nil fallback with no file
// yields a no-op logger, which is what the TUI wants since it owns the
// terminal.
//
// The returned close func flushes the logger and releases the log file. It
// is never nil.
func New(cfg config.LogConfig, fallback io.Writer) (*zap.Logger, func() error, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var (
		sink      zapcore.WriteSyncer
		closeFile = func() error { return nil }
	)
	switch {
	case cfg.File != "":
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		sink = zapcore.Lock(f)
		closeFile = f.Close
	case fallback != nil:
		sink = zapcore.AddSync(fallback)
	default:
		return zap.NewNop(), closeFile, nil
	}

	log := zap.New(zapcore.NewCore(newEncoder(cfg.Format), sink, level))
	return log, func() error {
		// Sync errors on terminals.
		_ = log.Sync()
		return closeFile()
	}, nil
}

// ParseLevel accepts debug, info, warn, error (case-insensitive). Empty means info.
func ParseLevel(s string) (zapcore.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return lvl, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return lvl, nil
}

func newEncoder(format string) zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == "json" {
		return zapcore.NewJSONEncoder(encoderCfg)
	}
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(encoderCfg)
}
