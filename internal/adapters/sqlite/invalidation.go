package sqlite

import "sync"

// invalidationTracker wakes observers after the table changes.
// Each bump closes the current channel and installs a fresh one, so an
// observer that grabbed the channel before querying never misses a change.
type invalidationTracker struct {
	mu      sync.Mutex
	version uint64
	changed chan struct{}
}

func newInvalidationTracker() *invalidationTracker {
	return &invalidationTracker{changed: make(chan struct{})}
}

// current returns the version and the channel closed by the next bump.
func (t *invalidationTracker) current() (uint64, <-chan struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.version, t.changed
}

func (t *invalidationTracker) bump() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.version++
	close(t.changed)
	t.changed = make(chan struct{})
}
