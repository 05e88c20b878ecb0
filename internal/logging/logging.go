// Package logging builds the application logger: logrus to stderr and, when
// a file pattern is configured, to a rotating log file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/sirupsen/logrus"
)

// Options configures New.
type Options struct {
	// Level is a logrus level name. Empty means info.
	Level string

	// File is a strftime pattern, e.g. ./logs/asycuda.%Y%m%d.log. Empty
	// disables file output.
	File string

	MaxAge       time.Duration
	RotationTime time.Duration

	// Stderr is the console writer. Nil means os.Stderr.
	Stderr io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns the logger and a closer for its file output.
func New(opts Options) (*logrus.Logger, io.Closer, error) {
	level := logrus.InfoLevel
	if opts.Level != "" {
		l, err := logrus.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, nil, fmt.Errorf("invalid log level: %w", err)
		}
		level = l
	}

	console := opts.Stderr
	if console == nil {
		console = os.Stderr
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if opts.File == "" {
		logger.SetOutput(console)
		return logger, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	var rotateOpts []rotatelogs.Option
	if opts.MaxAge > 0 {
		rotateOpts = append(rotateOpts, rotatelogs.WithMaxAge(opts.MaxAge))
	}
	if opts.RotationTime > 0 {
		rotateOpts = append(rotateOpts, rotatelogs.WithRotationTime(opts.RotationTime))
	}

	file, err := rotatelogs.New(opts.File, rotateOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger.SetOutput(io.MultiWriter(console, file))
	return logger, file, nil
}
