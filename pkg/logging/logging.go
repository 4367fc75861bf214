package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"vizarcade.dev/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewHandler builds the slog handler described by cfg on top of stdout. When
// cfg.File is set the same records are also written to a rotated file; the
// returned closer releases it.
func NewHandler(cfg config.LogConfig, debug bool, stdout io.Writer) (slog.Handler, io.Closer, error) {
	var (
		writer io.Writer = stdout
		closer io.Closer = nopCloser{}
	)

	if cfg.File != "" {
		err := os.MkdirAll(filepath.Dir(cfg.File), 0o755) //nolint:mnd
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		rotated := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}

		writer = io.MultiWriter(stdout, rotated)
		closer = rotated
	}

	options := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if debug {
		options.Level = slog.LevelDebug
	}

	if cfg.Format == config.LogFormatJSON {
		return slog.NewJSONHandler(writer, options), closer, nil
	}

	return slog.NewTextHandler(writer, options), closer, nil
}

// Setup installs the handler as the process-wide default logger.
func Setup(cfg *config.Config) (io.Closer, error) {
	handler, closer, err := NewHandler(cfg.Log, cfg.Debug, os.Stdout)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(slog.New(handler))

	return closer, nil
}
