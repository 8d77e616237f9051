package signals

import (
	"log/slog"
	"sync/atomic"
)

type config struct {
	errorHandler func(error)
	logger       *slog.Logger
	strictReads  bool
}

type Option func(*config)

// WithErrorHandler sets the function effects report their failures to.
// By default failures are logged.
func WithErrorHandler(fn func(error)) Option {
	return func(c *config) {
		c.errorHandler = fn
	}
}

// WithLogger sets the logger of the default error handler.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithStrictReads makes reading a signal value outside of a tracked computation or an
// untracked block panic with ErrReadNotAllowed.
func WithStrictReads(strict bool) Option {
	return func(c *config) {
		c.strictReads = strict
	}
}

var active atomic.Pointer[config]

// Configure applies opts on top of the current configuration.
func Configure(opts ...Option) {
	c := *current()
	for _, opt := range opts {
		opt(&c)
	}
	active.Store(&c)
}

func current() *config {
	if c := active.Load(); c != nil {
		return c
	}
	return &config{}
}

func (c *config) handleError(err error) {
	if c.errorHandler != nil {
		c.errorHandler(err)
		return
	}

	logger := c.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("signals: effect failed", "err", err)
}
