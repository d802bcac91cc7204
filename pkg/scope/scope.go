package scope

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/forage/internal/domain"
	"github.com/bft-labs/forage/pkg/log"
)

// State represents the lifecycle state of a scope.
type State int

const (
	StateActive State = iota
	StateClosing
	StateClosed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateActive:
		return "Active"
	case StateClosing:
		return "Closing"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Dispatcher selects where a launched task runs.
type Dispatcher int

const (
	// Main runs tasks one at a time, in launch order, on a single goroutine.
	Main Dispatcher = iota

	// IO runs each task on its own goroutine, bounded by the worker limit.
	// There is no ordering between IO tasks.
	IO
)

// String returns the dispatcher name used in logs.
func (d Dispatcher) String() string {
	switch d {
	case Main:
		return "main"
	case IO:
		return "io"
	default:
		return "unknown"
	}
}

// FailureHandler receives tasks that ended with an error or a panic.
type FailureHandler func(task string, err error)

const (
	// DefaultShutdownTimeout bounds how long Close waits for running work.
	DefaultShutdownTimeout = 5 * time.Second

	// DefaultMaxIOWorkers bounds concurrently running IO tasks.
	DefaultMaxIOWorkers = 64
)

type task struct {
	name string
	fn   func(ctx context.Context) error
}

// Scope owns a cancellable context and every task launched in it.
type Scope struct {
	mu     sync.RWMutex
	state  State
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger          log.Logger
	onFailure       FailureHandler
	shutdownTimeout time.Duration
	ioSlots         chan struct{}

	mainMu      sync.Mutex
	mainQueue   []task
	mainRunning bool

	// idle is closed whenever no launched task is pending.
	pendingMu sync.Mutex
	pending   int
	idle      chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// New creates an active scope whose context derives from parent.
func New(parent context.Context, opts ...Option) *Scope {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	s := &Scope{
		state:           StateActive,
		logger:          log.OrNoop(o.logger),
		shutdownTimeout: o.shutdownTimeout,
		ioSlots:         make(chan struct{}, o.maxIOWorkers),
	}
	s.onFailure = o.onFailure
	if s.onFailure == nil {
		s.onFailure = s.logFailure
	}
	s.idle = make(chan struct{})
	close(s.idle)
	s.ctx, s.cancel = context.WithCancel(parent)
	return s
}

// Context returns the scope context. It is cancelled by Close.
func (s *Scope) Context() context.Context {
	return s.ctx
}

// State returns the current lifecycle state.
func (s *Scope) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Active reports whether the scope still accepts work.
func (s *Scope) Active() bool {
	return s.State() == StateActive && s.ctx.Err() == nil
}

// Launch schedules fn on dispatcher d and returns immediately.
// After Close has begun, Launch drops the task.
func (s *Scope) Launch(d Dispatcher, name string, fn func(ctx context.Context) error) {
	if !s.track(true) {
		s.logger.Debug("task dropped, scope closed",
			log.String("task", name),
			log.String("dispatcher", d.String()))
		return
	}

	t := task{name: name, fn: fn}
	switch d {
	case IO:
		go s.runIO(t)
	default:
		s.enqueueMain(t)
	}
}

// Go runs a long-lived worker that stops when the scope context is cancelled.
// It is not subject to the IO worker limit. Returns false if the scope is closed.
func (s *Scope) Go(name string, fn func(ctx context.Context)) bool {
	if !s.track(false) {
		s.logger.Debug("worker dropped, scope closed", log.String("worker", name))
		return false
	}
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.onFailure(name, fmt.Errorf("panic: %v", r))
			}
		}()
		fn(s.ctx)
	}()
	return true
}

// track registers one unit of work unless the scope is closing. Launched
// tasks also count as pending for Wait. Both counters move under the read
// lock so neither Close nor Wait observes one without the other.
func (s *Scope) track(launched bool) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateActive {
		return false
	}
	s.wg.Add(1)
	if launched {
		s.begin()
	}
	return true
}

func (s *Scope) begin() {
	s.pendingMu.Lock()
	if s.pending == 0 {
		s.idle = make(chan struct{})
	}
	s.pending++
	s.pendingMu.Unlock()
}

func (s *Scope) end() {
	s.pendingMu.Lock()
	s.pending--
	if s.pending == 0 {
		close(s.idle)
	}
	s.pendingMu.Unlock()
}

// Wait blocks until every task launched so far has finished or been
// dropped. Long-lived workers started with Go are not waited for.
func (s *Scope) Wait(ctx context.Context) error {
	s.pendingMu.Lock()
	idle := s.idle
	s.pendingMu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scope) runIO(t task) {
	defer s.wg.Done()
	defer s.end()

	select {
	case s.ioSlots <- struct{}{}:
	case <-s.ctx.Done():
		return
	}
	defer func() { <-s.ioSlots }()

	s.run(t)
}

func (s *Scope) enqueueMain(t task) {
	s.mainMu.Lock()
	s.mainQueue = append(s.mainQueue, t)
	if s.mainRunning {
		s.mainMu.Unlock()
		return
	}
	s.mainRunning = true
	s.mainMu.Unlock()

	go s.drainMain()
}

func (s *Scope) drainMain() {
	for {
		s.mainMu.Lock()
		if len(s.mainQueue) == 0 {
			s.mainRunning = false
			s.mainMu.Unlock()
			return
		}
		t := s.mainQueue[0]
		s.mainQueue[0] = task{}
		s.mainQueue = s.mainQueue[1:]
		s.mainMu.Unlock()

		if s.ctx.Err() == nil {
			s.run(t)
		}
		s.end()
		s.wg.Done()
	}
}

// run executes a task and routes failures to the handler.
// Tasks that never start because the scope was cancelled are not failures.
func (s *Scope) run(t task) {
	if s.ctx.Err() != nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.onFailure(t.name, fmt.Errorf("panic: %v", r))
		}
	}()

	err := t.fn(s.ctx)
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	s.onFailure(t.name, err)
}

func (s *Scope) logFailure(name string, err error) {
	s.logger.Error("background task failed",
		log.String("task", name),
		log.Err(err))
}

// Close cancels the scope and waits for its tasks and workers.
// Returns domain.ErrShutdownTimeout if they do not finish within the
// shutdown timeout. Subsequent calls return the first result.
func (s *Scope) Close() error {
	s.closeOnce.Do(func() {
		s.transitionTo(StateClosing)
		s.cancel()
		s.closeErr = s.waitWithTimeout(s.shutdownTimeout)
		s.transitionTo(StateClosed)
	})
	return s.closeErr
}

func (s *Scope) transitionTo(next State) {
	s.mu.Lock()
	prev := s.state
	s.state = next
	s.mu.Unlock()

	s.logger.Debug("scope state transition",
		log.String("from", prev.String()),
		log.String("to", next.String()))
}

// waitWithTimeout waits for all tracked work to finish.
func (s *Scope) waitWithTimeout(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		s.logger.Warn("shutdown timeout, abandoning tasks",
			log.Duration("timeout", timeout))
		return domain.ErrShutdownTimeout
	}
}
