// Package logging builds the zap loggers shared by every command.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON production logger writing to stderr, at debug level when verbose.
func New(verbose bool) (*zap.Logger, error) {
	return build(verbose, "stderr")
}

// NewFile writes to path instead of stderr. The TUI uses it because it owns the terminal.
func NewFile(path string, verbose bool) (*zap.Logger, error) {
	return build(verbose, path)
}

func build(verbose bool, sink string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	config.OutputPaths = []string{sink}
	config.ErrorOutputPaths = []string{sink}
	config.EncoderConfig.TimeKey = "ts"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
