// Package worker drains queued answer records into the history store.
package worker

import (
	"github.com/somaedu/adapt/pkg/logger"
)

// Option applies a configuration option to the JournalWorker.
type Option func(*JournalWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *JournalWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *JournalWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}
