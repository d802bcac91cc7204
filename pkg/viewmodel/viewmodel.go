package viewmodel

import (
	"context"
	"strings"
	"time"

	"github.com/bft-labs/forage/internal/domain"
	"github.com/bft-labs/forage/internal/ports"
	"github.com/bft-labs/forage/pkg/live"
	"github.com/bft-labs/forage/pkg/log"
	"github.com/bft-labs/forage/pkg/scope"
)

// ViewModel is anything a Factory can build and a Store can clear.
type ViewModel interface {
	// Close cancels the view model's tasks and subscriptions.
	Close() error
}

// ForageableViewModel is shared by the list, detail and add/edit screens.
type ForageableViewModel struct {
	dao      ports.ForageableDAO
	scope    *scope.Scope
	logger   log.Logger
	liveOpts []live.Option

	shutdownTimeout time.Duration

	forageables *live.Data[[]domain.Forageable]
}

var _ ViewModel = (*ForageableViewModel)(nil)

// New creates a view model bound to dao. Its scope lives until Close.
func New(dao ports.ForageableDAO, opts ...Option) *ForageableViewModel {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := log.OrNoop(o.logger).With(log.String("component", "viewmodel"))

	scopeOpts := []scope.Option{
		scope.WithLogger(logger),
		scope.WithShutdownTimeout(o.shutdownTimeout),
		scope.WithMaxIOWorkers(o.maxIOWorkers),
	}
	if o.onFailure != nil {
		scopeOpts = append(scopeOpts, scope.WithFailureHandler(o.onFailure))
	}

	vm := &ForageableViewModel{
		dao:             dao,
		scope:           scope.New(o.parent, scopeOpts...),
		logger:          logger,
		shutdownTimeout: o.shutdownTimeout,
	}
	if o.linger != nil {
		vm.liveOpts = []live.Option{live.WithLinger(*o.linger)}
	}
	vm.forageables = live.FromStream[[]domain.Forageable](vm.scope, dao.ObserveAll, vm.liveOpts...)
	return vm
}

// Forageables is the live list of every record.
func (vm *ForageableViewModel) Forageables() *live.Data[[]domain.Forageable] {
	return vm.forageables
}

// Forageable returns a live view of the record with id.
func (vm *ForageableViewModel) Forageable(id int64) *live.Data[domain.Forageable] {
	return live.FromStream[domain.Forageable](vm.scope, func(ctx context.Context) <-chan domain.Forageable {
		return vm.dao.Observe(ctx, id)
	}, vm.liveOpts...)
}

// AddForageable submits a new record for insertion and returns immediately.
// The DAO assigns the ID. No validation happens here.
func (vm *ForageableViewModel) AddForageable(name, address string, inSeason bool, notes string) {
	f := domain.Forageable{
		Name:     name,
		Address:  address,
		InSeason: inSeason,
		Notes:    notes,
	}
	vm.scope.Launch(scope.IO, "insert forageable", func(ctx context.Context) error {
		_, err := vm.dao.Insert(ctx, f)
		return err
	})
}

// UpdateForageable submits a replacement for the record with id and returns immediately.
func (vm *ForageableViewModel) UpdateForageable(id int64, name, address string, inSeason bool, notes string) {
	f := domain.Forageable{
		ID:       id,
		Name:     name,
		Address:  address,
		InSeason: inSeason,
		Notes:    notes,
	}
	vm.scope.Launch(scope.IO, "update forageable", func(ctx context.Context) error {
		return vm.dao.Update(ctx, f)
	})
}

// DeleteForageable submits f for deletion and returns immediately.
func (vm *ForageableViewModel) DeleteForageable(f domain.Forageable) {
	vm.scope.Launch(scope.IO, "delete forageable", func(ctx context.Context) error {
		return vm.dao.Delete(ctx, f)
	})
}

// IsValidEntry reports whether name and address both contain non-whitespace text.
func (vm *ForageableViewModel) IsValidEntry(name, address string) bool {
	return IsValidEntry(name, address)
}

// IsValidEntry is the receiver-free form of ForageableViewModel.IsValidEntry.
func IsValidEntry(name, address string) bool {
	return strings.TrimSpace(name) != "" && strings.TrimSpace(address) != ""
}

// Wait blocks until every submitted write has finished or ctx ends.
func (vm *ForageableViewModel) Wait(ctx context.Context) error {
	return vm.scope.Wait(ctx)
}

// Flush is Wait bounded by the shutdown timeout.
func (vm *ForageableViewModel) Flush() error {
	ctx, cancel := context.WithTimeout(context.Background(), vm.shutdownTimeout)
	defer cancel()
	return vm.Wait(ctx)
}

// Close cancels pending writes and live subscriptions, waiting for running
// writes up to the shutdown timeout.
func (vm *ForageableViewModel) Close() error {
	return vm.scope.Close()
}

// Active reports whether the view model has not been closed.
func (vm *ForageableViewModel) Active() bool {
	return vm.scope.Active()
}
