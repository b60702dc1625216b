// Package opslog is streambench's structured logging layer. It wraps
// logrus the way the teacher codebase's ops package wraps it for task
// logs: callers get a small Logger interface carrying a fixed set of
// fields (worker index, query name) rather than reaching for the
// logrus package directly, so every log line from a pipeline component
// is automatically tagged with where it came from.
package opslog

import (
	log "github.com/sirupsen/logrus"
)

// Logger publishes structured log events tagged with a fixed set of
// fields established when the Logger was built.
type Logger interface {
	WithField(key string, value interface{}) Logger
	WithFields(fields log.Fields) Logger
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type logger struct {
	entry *log.Entry
}

// New returns the root Logger, writing through logrus's standard
// logger with a text formatter (set once per process via Configure).
func New() Logger {
	return &logger{entry: log.NewEntry(log.StandardLogger())}
}

// Configure sets the process-wide logrus level and formatter. level
// accepts any string logrus.ParseLevel understands ("debug", "info",
// "warn", "error"); an unrecognized value falls back to info.
func Configure(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}

func (l *logger) WithField(key string, value interface{}) Logger {
	return &logger{entry: l.entry.WithField(key, value)}
}

func (l *logger) WithFields(fields log.Fields) Logger {
	return &logger{entry: l.entry.WithFields(fields)}
}

func (l *logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

// ForWorker returns a Logger scoped to a single driver worker, the way
// every per-worker log line in a test run needs to be attributable to
// its worker index when workerCount > 1.
func ForWorker(worker, workerCount int) Logger {
	return New().WithFields(log.Fields{"worker": worker, "workers": workerCount})
}
