// Package logging holds the single process-wide logger used by every
// package in this module: initialized once at program entry
// (cmd/dsd-utils), read everywhere else.
package logging

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu      sync.RWMutex
	current *zap.SugaredLogger
)

func init() {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	current = l.Sugar()
}

// L returns the process-wide logger. Safe to call before Set; a sane
// default (production-configured zap) is installed by this package's
// init().
func L() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Set installs a new process-wide logger, e.g. a development-mode or
// verbose logger selected from the CLI's --log-level flag, or a
// zaptest-backed logger from a test.
func Set(l *zap.SugaredLogger) {
	mu.Lock()
	defer mu.Unlock()
	current = l
}

// LevelFromString maps the CLI's --log-level flag value to a zap level,
// defaulting to Info on an unrecognized string.
func LevelFromString(s string) zap.AtomicLevel {
	lvl, err := zap.ParseAtomicLevel(s)
	if err != nil {
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return lvl
}
