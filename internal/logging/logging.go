package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Options select where the log goes. File empty means Stderr.
type Options struct {
	Level  string
	File   string
	Stderr io.Writer
}

// New builds the process logger. The TUI owns the terminal, so by default
// traffic is logged to a file; the returned closer releases it.
func New(opt Options) (*logrus.Logger, io.Closer, error) {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		DisableColors:   opt.File != "",
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	level := logrus.InfoLevel
	if opt.Level != "" {
		l, err := logrus.ParseLevel(opt.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("log level: %w", err)
		}
		level = l
	}
	log.SetLevel(level)

	if opt.File == "" {
		w := opt.Stderr
		if w == nil {
			w = os.Stderr
		}
		log.SetOutput(w)
		return log, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(opt.File), 0o700); err != nil {
		return nil, nil, fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(opt.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	return log, f, nil
}

// Discard is a logger for callers that do not care, mostly tests.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
