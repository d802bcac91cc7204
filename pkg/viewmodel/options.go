package viewmodel

import (
	"context"
	"time"

	"github.com/bft-labs/forage/pkg/log"
	"github.com/bft-labs/forage/pkg/scope"
)

// Option configures a ForageableViewModel.
type Option func(*options)

type options struct {
	parent          context.Context
	logger          log.Logger
	onFailure       scope.FailureHandler
	shutdownTimeout time.Duration
	maxIOWorkers    int
	linger          *time.Duration
}

func defaultOptions() options {
	return options{
		parent:          context.Background(),
		shutdownTimeout: scope.DefaultShutdownTimeout,
		maxIOWorkers:    scope.DefaultMaxIOWorkers,
	}
}

// WithContext sets the parent of the view model scope. Cancelling it has the
// same effect on tasks and subscriptions as Close, minus the wait.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.parent = ctx
		}
	}
}

// WithLogger sets the logger. If not provided, nothing is logged.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithFailureHandler receives write tasks that failed. The default logs them.
func WithFailureHandler(h scope.FailureHandler) Option {
	return func(o *options) {
		o.onFailure = h
	}
}

// WithShutdownTimeout bounds how long Close waits for running writes.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) {
		o.shutdownTimeout = d
	}
}

// WithMaxIOWorkers bounds concurrently running writes.
func WithMaxIOWorkers(n int) Option {
	return func(o *options) {
		o.maxIOWorkers = n
	}
}

// WithLinger sets how long live reads keep querying after their last observer leaves.
func WithLinger(d time.Duration) Option {
	return func(o *options) {
		o.linger = &d
	}
}
