package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Level string
	// File enables rotated file output in addition to stderr.
	File string
}

// New builds the application logger.
func New(opts Options) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	level := logrus.InfoLevel
	if opts.Level != "" {
		var err error
		level, err = logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("logging: parse level %q: %w", opts.Level, err)
		}
	}
	log.SetLevel(level)

	var out io.Writer = os.Stderr
	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 7,
			MaxAge:     7, // days
			Compress:   true,
		}
		out = io.MultiWriter(os.Stderr, rotator)
	}
	log.SetOutput(out)

	return log, nil
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
