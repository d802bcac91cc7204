package viewmodel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/forage/internal/domain"
)

func waitWrite(t *testing.T, dao *fakeDAO, want string) {
	t.Helper()
	select {
	case got := <-dao.writes:
		if got != want {
			t.Fatalf("write = %s, want %s", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", want)
	}
}

func expectNoWrite(t *testing.T, dao *fakeDAO) {
	t.Helper()
	select {
	case got := <-dao.writes:
		t.Fatalf("unexpected extra write: %s", got)
	case <-time.After(30 * time.Millisecond):
	}
}

func TestIsValidEntry(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    bool
	}{
		{" ", "123 Rd", false},
		{"Oak", " ", false},
		{"Oak", "123 Rd", true},
		{"", "", false},
		{"\t\n", "123 Rd", false},
		{"  Oak  ", "  123 Rd ", true},
	}

	vm := New(newFakeDAO())
	defer vm.Close()

	for _, tt := range tests {
		if got := vm.IsValidEntry(tt.name, tt.address); got != tt.want {
			t.Errorf("IsValidEntry(%q, %q) = %v, want %v", tt.name, tt.address, got, tt.want)
		}
	}
}

func TestAddForageable_SubmitsOneInsert(t *testing.T) {
	dao := newFakeDAO()
	vm := New(dao)
	defer vm.Close()

	vm.AddForageable("Chanterelle", "North ridge", true, "")
	waitWrite(t, dao, "insert")
	expectNoWrite(t, dao)

	dao.mu.Lock()
	defer dao.mu.Unlock()
	if len(dao.inserts) != 1 {
		t.Fatalf("inserts = %d, want 1", len(dao.inserts))
	}
	want := domain.Forageable{Name: "Chanterelle", Address: "North ridge", InSeason: true, Notes: ""}
	if dao.inserts[0] != want {
		t.Errorf("inserted %+v, want %+v", dao.inserts[0], want)
	}
	if dao.inserts[0].ID != 0 {
		t.Errorf("inserted ID = %d, want 0", dao.inserts[0].ID)
	}
}

func TestAddForageable_DoesNotValidate(t *testing.T) {
	dao := newFakeDAO()
	vm := New(dao)
	defer vm.Close()

	vm.AddForageable(" ", "", false, "")
	waitWrite(t, dao, "insert")
}

func TestUpdateForageable_SubmitsOneUpdate(t *testing.T) {
	dao := newFakeDAO()
	vm := New(dao)
	defer vm.Close()

	vm.UpdateForageable(42, "Ramps", "Creek bank", false, "spring only")
	waitWrite(t, dao, "update")
	expectNoWrite(t, dao)

	dao.mu.Lock()
	defer dao.mu.Unlock()
	if len(dao.updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(dao.updates))
	}
	want := domain.Forageable{ID: 42, Name: "Ramps", Address: "Creek bank", InSeason: false, Notes: "spring only"}
	if dao.updates[0] != want {
		t.Errorf("updated %+v, want %+v", dao.updates[0], want)
	}
}

func TestDeleteForageable_SubmitsExactValue(t *testing.T) {
	dao := newFakeDAO()
	vm := New(dao)
	defer vm.Close()

	target := domain.Forageable{ID: 7, Name: "Sumac", Address: "Roadside", InSeason: true, Notes: "red clusters"}
	vm.DeleteForageable(target)
	waitWrite(t, dao, "delete")
	expectNoWrite(t, dao)

	dao.mu.Lock()
	defer dao.mu.Unlock()
	if len(dao.deletes) != 1 || dao.deletes[0] != target {
		t.Fatalf("deletes = %+v, want [%+v]", dao.deletes, target)
	}
}

func TestWriteFailuresGoToFailureHandler(t *testing.T) {
	dao := newFakeDAO()
	dao.failWrites = errDiskFull

	var mu sync.Mutex
	var failed []string
	vm := New(dao, WithFailureHandler(func(task string, err error) {
		if !errors.Is(err, errDiskFull) {
			t.Errorf("task %s err = %v, want errDiskFull", task, err)
		}
		mu.Lock()
		failed = append(failed, task)
		mu.Unlock()
	}))

	vm.AddForageable("a", "b", false, "")
	vm.UpdateForageable(1, "a", "b", false, "")
	vm.DeleteForageable(domain.Forageable{ID: 1})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := vm.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if err := vm.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(failed) != 3 {
		t.Fatalf("failures = %v, want 3 entries", failed)
	}
}

func TestForageables_ReemitsOnChange(t *testing.T) {
	dao := newFakeDAO()
	vm := New(dao)
	defer vm.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := vm.Forageables().Subscribe(ctx)

	next := func() []domain.Forageable {
		t.Helper()
		select {
		case items, ok := <-ch:
			if !ok {
				t.Fatal("subscription closed")
			}
			return items
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for list emission")
		}
		return nil
	}

	if items := next(); len(items) != 0 {
		t.Fatalf("initial = %+v, want empty", items)
	}

	vm.AddForageable("Oak", "123 Rd", true, "acorns")
	items := next()
	if len(items) != 1 || items[0].Name != "Oak" || items[0].ID == 0 {
		t.Fatalf("after add = %+v", items)
	}

	vm.UpdateForageable(items[0].ID, "Oak", "125 Rd", false, "")
	if items := next(); len(items) != 1 || items[0].Address != "125 Rd" {
		t.Fatalf("after update = %+v", items)
	}

	vm.DeleteForageable(items[0])
	if items := next(); len(items) != 0 {
		t.Fatalf("after delete = %+v", items)
	}
}

func TestForageable_FollowsOneRecord(t *testing.T) {
	dao := newFakeDAO()
	vm := New(dao)
	defer vm.Close()

	if _, err := dao.Insert(context.Background(), domain.Forageable{Name: "Hazel", Address: "Hedge"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	<-dao.writes

	got := make(chan domain.Forageable, 4)
	stop := vm.Forageable(1).Observe(context.Background(), func(f domain.Forageable) { got <- f })
	defer stop()

	select {
	case f := <-got:
		if f.Name != "Hazel" {
			t.Fatalf("name = %q, want Hazel", f.Name)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no initial emission")
	}

	vm.UpdateForageable(1, "Hazelnut", "Hedge", true, "")
	select {
	case f := <-got:
		if f.Name != "Hazelnut" || !f.InSeason {
			t.Fatalf("after update = %+v", f)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no emission after update")
	}
}

func TestClose_StopsSubscriptionsAndDropsWrites(t *testing.T) {
	dao := newFakeDAO()
	vm := New(dao)

	ch := vm.Forageables().Subscribe(context.Background())
	<-ch

	if err := vm.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if vm.Active() {
		t.Error("closed view model reports Active")
	}

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("subscription still open after Close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not closed after Close")
	}

	vm.AddForageable("late", "write", false, "")
	expectNoWrite(t, dao)
}

func TestWithContext_ParentCancellation(t *testing.T) {
	dao := newFakeDAO()
	ctx, cancel := context.WithCancel(context.Background())
	vm := New(dao, WithContext(ctx))
	defer vm.Close()

	cancel()
	vm.AddForageable("late", "write", false, "")
	expectNoWrite(t, dao)
}

func TestFlush_BoundedByShutdownTimeout(t *testing.T) {
	dao := newFakeDAO()
	dao.hold = make(chan struct{})
	vm := New(dao, WithShutdownTimeout(50*time.Millisecond))

	vm.AddForageable("Oak", "123 Rd", false, "")

	start := time.Now()
	err := vm.Flush()
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Flush with held insert = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Flush waited %v, want about the 50ms shutdown timeout", elapsed)
	}

	close(dao.hold)
	waitWrite(t, dao, "insert")
	if err := vm.Flush(); err != nil {
		t.Fatalf("Flush after release: %v", err)
	}
	if err := vm.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
