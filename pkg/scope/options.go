package scope

import (
	"time"

	"github.com/bft-labs/forage/pkg/log"
)

// Option configures a Scope.
type Option func(*options)

type options struct {
	logger          log.Logger
	onFailure       FailureHandler
	shutdownTimeout time.Duration
	maxIOWorkers    int
}

func defaultOptions() options {
	return options{
		shutdownTimeout: DefaultShutdownTimeout,
		maxIOWorkers:    DefaultMaxIOWorkers,
	}
}

// WithLogger sets the logger. Without it the scope logs nothing.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithFailureHandler replaces the default failure handler, which logs the
// error. The handler is called from the task's goroutine.
func WithFailureHandler(h FailureHandler) Option {
	return func(o *options) {
		o.onFailure = h
	}
}

// WithShutdownTimeout sets how long Close waits. Non-positive values are ignored.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.shutdownTimeout = d
		}
	}
}

// WithMaxIOWorkers bounds concurrently running IO tasks. Non-positive values are ignored.
func WithMaxIOWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxIOWorkers = n
		}
	}
}
