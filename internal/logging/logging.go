// Package logging builds the zap loggers used across the tracker. The TUI
// owns the terminal, so interactive runs log to a file; one-shot commands
// log human-readable lines to stderr.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the logger flavor.
type Options struct {
	// Verbose lowers the level from info to debug.
	Verbose bool
	// File, when set, receives JSON log lines instead of stderr. Parent
	// directories are created as needed.
	File string
}

// New constructs the logger. Callers own Sync on shutdown.
func New(opts Options) (*zap.Logger, error) {
	level := zap.InfoLevel
	if opts.Verbose {
		level = zap.DebugLevel
	}

	if opts.File == "" {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(level)
		cfg.OutputPaths = []string{"stderr"}
		cfg.ErrorOutputPaths = []string{"stderr"}
		logger, err := cfg.Build()
		if err != nil {
			return nil, fmt.Errorf("build console logger: %w", err)
		}
		return logger, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{opts.File}
	cfg.ErrorOutputPaths = []string{opts.File}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build file logger: %w", err)
	}
	return logger, nil
}

// DefaultLogPath returns the per-user log file used when none is configured.
func DefaultLogPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "tracker", "tracker.log")
	}
	return filepath.Join(dir, "tracker", "tracker.log")
}
