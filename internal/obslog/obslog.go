// Package obslog threads a single github.com/go-logr/logr.Logger through
// the core as a plain value internal/store and internal/publishqueue can
// hold directly, since they run outside of any one request's
// context.Context.
package obslog

import "github.com/go-logr/logr"

// Logger wraps a logr.Logger with the small, fixed vocabulary the core
// needs: state transitions at Info, propagated failures at Error. Never
// used for data that should instead be a metric (internal/storemetrics
// owns counters and histograms).
type Logger struct {
	logr.Logger
}

// New wraps l.
func New(l logr.Logger) Logger {
	return Logger{Logger: l}
}

// Discard returns a Logger that drops everything, for callers (tests,
// CLI tools) that don't want to wire a real sink.
func Discard() Logger {
	return Logger{Logger: logr.Discard()}
}

// WithName returns a Logger scoped under name, following logr's own
// hierarchical-name convention ("store", "store.gc", "publishqueue").
func (l Logger) WithName(name string) Logger {
	return Logger{Logger: l.Logger.WithName(name)}
}
