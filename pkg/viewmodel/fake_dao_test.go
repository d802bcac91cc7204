package viewmodel

import (
	"context"
	"errors"
	"sync"

	"github.com/bft-labs/forage/internal/domain"
	"github.com/bft-labs/forage/internal/ports"
)

// fakeDAO is an in-memory ForageableDAO that records every write.
type fakeDAO struct {
	mu      sync.Mutex
	nextID  int64
	rows    map[int64]domain.Forageable
	changed chan struct{}

	inserts []domain.Forageable
	updates []domain.Forageable
	deletes []domain.Forageable

	failWrites error
	writes     chan string

	// hold, when set, blocks Insert until it is closed.
	hold chan struct{}
}

var _ ports.ForageableDAO = (*fakeDAO)(nil)

func newFakeDAO() *fakeDAO {
	return &fakeDAO{
		rows:    make(map[int64]domain.Forageable),
		changed: make(chan struct{}),
		writes:  make(chan string, 64),
	}
}

func (f *fakeDAO) notifyLocked() {
	close(f.changed)
	f.changed = make(chan struct{})
}

func (f *fakeDAO) snapshot() ([]domain.Forageable, <-chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]domain.Forageable, 0, len(f.rows))
	for id := int64(1); id <= f.nextID; id++ {
		if r, ok := f.rows[id]; ok {
			items = append(items, r)
		}
	}
	return items, f.changed
}

func (f *fakeDAO) ObserveAll(ctx context.Context) <-chan []domain.Forageable {
	out := make(chan []domain.Forageable)
	go func() {
		defer close(out)
		for {
			items, changed := f.snapshot()
			select {
			case out <- items:
			case <-ctx.Done():
				return
			}
			select {
			case <-changed:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (f *fakeDAO) Observe(ctx context.Context, id int64) <-chan domain.Forageable {
	out := make(chan domain.Forageable)
	go func() {
		defer close(out)
		for {
			f.mu.Lock()
			row, ok := f.rows[id]
			changed := f.changed
			f.mu.Unlock()
			if ok {
				select {
				case out <- row:
				case <-ctx.Done():
					return
				}
			}
			select {
			case <-changed:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (f *fakeDAO) Insert(ctx context.Context, row domain.Forageable) (int64, error) {
	if f.hold != nil {
		<-f.hold
	}
	f.mu.Lock()
	defer func() { f.mu.Unlock(); f.writes <- "insert" }()
	f.inserts = append(f.inserts, row)
	if f.failWrites != nil {
		return 0, f.failWrites
	}
	f.nextID++
	row.ID = f.nextID
	f.rows[row.ID] = row
	f.notifyLocked()
	return row.ID, nil
}

func (f *fakeDAO) Update(ctx context.Context, row domain.Forageable) error {
	f.mu.Lock()
	defer func() { f.mu.Unlock(); f.writes <- "update" }()
	f.updates = append(f.updates, row)
	if f.failWrites != nil {
		return f.failWrites
	}
	if _, ok := f.rows[row.ID]; ok {
		f.rows[row.ID] = row
		f.notifyLocked()
	}
	return nil
}

func (f *fakeDAO) Delete(ctx context.Context, row domain.Forageable) error {
	f.mu.Lock()
	defer func() { f.mu.Unlock(); f.writes <- "delete" }()
	f.deletes = append(f.deletes, row)
	if f.failWrites != nil {
		return f.failWrites
	}
	if _, ok := f.rows[row.ID]; ok {
		delete(f.rows, row.ID)
		f.notifyLocked()
	}
	return nil
}

var errDiskFull = errors.New("disk full")
