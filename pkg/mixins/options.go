package mixins

import (
	"io"
	"log/slog"
)

const (
	defaultConcurrency = 4
	defaultMaxRefDepth = 32
)

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger routes per-schema diagnostics to logger.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithConcurrency bounds how many schemas load at once. Values below one
// load schemas one after another.
func WithConcurrency(n int) LoaderOption {
	return func(l *Loader) {
		if n < 1 {
			n = 1
		}
		l.concurrency = n
	}
}

// WithMaxRefDepth caps nested $ref chains.
func WithMaxRefDepth(depth int) LoaderOption {
	return func(l *Loader) {
		if depth > 0 {
			l.maxRefDepth = depth
		}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
