package live

import (
	"context"
	"sync"
	"time"

	"github.com/bft-labs/forage/pkg/scope"
)

// DefaultLinger is how long collection keeps running after the last observer leaves.
const DefaultLinger = 5 * time.Second

// Stream produces values until ctx is done, then closes the channel.
type Stream[T any] func(ctx context.Context) <-chan T

// Data holds the latest value of a Stream and fans it out to observers.
type Data[T any] struct {
	sc     *scope.Scope
	src    Stream[T]
	linger time.Duration

	mu        sync.Mutex
	value     T
	version   uint64
	observers map[uint64]*observer
	nextID    uint64

	// collection state; generation guards against stale stop timers and
	// collectors that exit after a restart
	collecting  bool
	generation  uint64
	stopCollect context.CancelFunc
	lingerTimer *time.Timer
}

type observer struct {
	notify chan struct{}
	done   chan struct{}
	once   sync.Once
}

func (o *observer) signal() {
	select {
	case o.notify <- struct{}{}:
	default:
	}
}

func (o *observer) stop() {
	o.once.Do(func() { close(o.done) })
}

// Option configures a Data.
type Option func(*dataOptions)

type dataOptions struct {
	linger time.Duration
}

// WithLinger sets how long collection outlives the last observer.
// Zero stops collection immediately.
func WithLinger(d time.Duration) Option {
	return func(o *dataOptions) {
		if d >= 0 {
			o.linger = d
		}
	}
}

// FromStream binds src to sc. Nothing is collected until the first observer.
func FromStream[T any](sc *scope.Scope, src Stream[T], opts ...Option) *Data[T] {
	o := dataOptions{linger: DefaultLinger}
	for _, opt := range opts {
		opt(&o)
	}
	return &Data[T]{
		sc:        sc,
		src:       src,
		linger:    o.linger,
		observers: make(map[uint64]*observer),
	}
}

// Value returns the latest value and whether one has been received.
func (d *Data[T]) Value() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value, d.version > 0
}

// Observers returns the number of active observers.
func (d *Data[T]) Observers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.observers)
}

// Observe calls fn with every new value until ctx is done, the returned
// cancel func is called, or the scope closes. Calls for one observer are
// serial; a slow observer skips intermediate values and sees the latest one.
func (d *Data[T]) Observe(ctx context.Context, fn func(T)) (cancel func()) {
	return d.observe(ctx, fn, nil)
}

// Subscribe is the channel form of Observe. The channel is closed when ctx
// is done or the scope closes.
func (d *Data[T]) Subscribe(ctx context.Context) <-chan T {
	out := make(chan T, 1)
	d.observe(ctx, func(v T) {
		select {
		case out <- v:
		case <-ctx.Done():
		case <-d.sc.Context().Done():
		}
	}, func() { close(out) })
	return out
}

func (d *Data[T]) observe(ctx context.Context, fn func(T), onDone func()) func() {
	o := &observer{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.observers[id] = o
	if d.version > 0 {
		o.signal()
	}
	d.mu.Unlock()

	started := d.sc.Go("live-observer", func(scopeCtx context.Context) {
		defer d.removeObserver(id)
		if onDone != nil {
			defer onDone()
		}

		var seen uint64
		for {
			select {
			case <-ctx.Done():
				return
			case <-scopeCtx.Done():
				return
			case <-o.done:
				return
			case <-o.notify:
				d.mu.Lock()
				v, ver := d.value, d.version
				d.mu.Unlock()
				if ver == seen {
					continue
				}
				seen = ver
				fn(v)
			}
		}
	})
	if !started {
		d.removeObserver(id)
		if onDone != nil {
			onDone()
		}
		return func() {}
	}

	d.ensureCollecting()
	return o.stop
}

func (d *Data[T]) removeObserver(id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.observers[id]; !ok {
		return
	}
	delete(d.observers, id)
	if len(d.observers) > 0 || !d.collecting {
		return
	}

	gen := d.generation
	if d.linger == 0 {
		d.stopLocked(gen)
		return
	}
	d.lingerTimer = time.AfterFunc(d.linger, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if len(d.observers) == 0 {
			d.stopLocked(gen)
		}
	})
}

// stopLocked ends collection for generation gen. Caller holds d.mu.
func (d *Data[T]) stopLocked(gen uint64) {
	if !d.collecting || d.generation != gen {
		return
	}
	d.collecting = false
	if d.stopCollect != nil {
		d.stopCollect()
		d.stopCollect = nil
	}
}

func (d *Data[T]) ensureCollecting() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.observers) == 0 {
		return
	}
	if d.lingerTimer != nil {
		d.lingerTimer.Stop()
		d.lingerTimer = nil
	}
	if d.collecting {
		return
	}

	cctx, cancel := context.WithCancel(d.sc.Context())
	d.generation++
	gen := d.generation
	d.collecting = true
	d.stopCollect = cancel

	started := d.sc.Go("live-collector", func(context.Context) {
		defer cancel()
		for v := range d.src(cctx) {
			d.publish(v)
		}
		d.mu.Lock()
		if d.generation == gen {
			d.collecting = false
			d.stopCollect = nil
		}
		d.mu.Unlock()
	})
	if !started {
		cancel()
		d.collecting = false
		d.stopCollect = nil
	}
}

func (d *Data[T]) publish(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.value = v
	d.version++
	for _, o := range d.observers {
		o.signal()
	}
}
