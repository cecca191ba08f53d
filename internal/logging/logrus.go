// Package logging builds the logrus loggers used across iotdash.
//
// The TUI owns the terminal, so log output normally goes to a file that the
// log view tails. Every subsystem logs through its own entry carrying a
// "component" field.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// TimestampFormat is the timestamp layout written to every line.
const TimestampFormat = "2006-01-02 15:04:05"

// Logrus represents the shared logrus logger.
type Logrus struct {
	level  logrus.Level
	logger *logrus.Logger
}

// NewLogrus creates a logger writing to output at level. Unknown levels fall
// back to info.
func NewLogrus(level string, output io.Writer) *Logrus {
	lvl := ParseLevel(level)

	log := logrus.New()
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: TimestampFormat,
		DisableColors:   true,
	})
	if output == nil {
		output = io.Discard
	}
	log.SetOutput(output)

	return &Logrus{level: lvl, logger: log}
}

// Get returns an entry tagged with the given component.
func (l *Logrus) Get(component string) *logrus.Entry {
	return l.logger.WithField("component", component)
}

// Level reports the effective level.
func (l *Logrus) Level() logrus.Level {
	return l.level
}

// ParseLevel is logrus.ParseLevel with an info fallback.
func ParseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// OpenFile opens path for appending, creating parent directories.
func OpenFile(path string) (*os.File, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("log file path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create log directory")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "open log file %s", path)
	}
	return f, nil
}

// Discard returns an entry that drops everything.
func Discard() *logrus.Entry {
	return NewLogrus("panic", io.Discard).Get("discard")
}
