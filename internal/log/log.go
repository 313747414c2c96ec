// Package log builds the logrus loggers used by the larder binary and its
// backends.
package log

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = "info"

// New creates a logger writing to w at the named level. An empty level
// selects DefaultLevel.
func New(w io.Writer, level string) (*logrus.Logger, error) {
	if level == "" {
		level = DefaultLevel
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(lvl)
	log.SetReportCaller(lvl >= logrus.DebugLevel)
	return log, nil
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// WithTable scopes inner to one table of one backend.
func WithTable(inner logrus.FieldLogger, backend, table string) logrus.FieldLogger {
	return inner.WithFields(logrus.Fields{
		"backend": backend,
		"table":   table,
	})
}
