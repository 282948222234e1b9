// Package logging sets up the diagnostics log. User-facing output goes
// through package output; this log records what ran, for troubleshooting.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Options configures New.
type Options struct {
	// Path is the log file. Empty means no file.
	Path string
	// Level is a logrus level name (debug, info, warn, error).
	Level string
	// Verbose forces debug level and mirrors entries to Stderr.
	Verbose bool
	Stderr  io.Writer
}

// New builds a logger writing TextFormatter lines to opts.Path, appending.
// The returned close function releases the file.
func New(opts Options) (*logrus.Logger, func() error, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		DisableColors: true,
	})

	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	if opts.Verbose {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

	var writers []io.Writer
	closer := func() error { return nil }

	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		writers = append(writers, f)
		closer = f.Close
	}
	if opts.Verbose {
		stderr := opts.Stderr
		if stderr == nil {
			stderr = os.Stderr
		}
		writers = append(writers, stderr)
	}

	switch len(writers) {
	case 0:
		logger.SetOutput(io.Discard)
	case 1:
		logger.SetOutput(writers[0])
	default:
		logger.SetOutput(io.MultiWriter(writers...))
	}
	return logger, closer, nil
}

// ParseLevel maps a config level name to a logrus level. Empty means info.
func ParseLevel(name string) (logrus.Level, error) {
	if strings.TrimSpace(name) == "" {
		return logrus.InfoLevel, nil
	}
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
