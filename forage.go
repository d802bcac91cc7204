// Package forage keeps a list of foraging spots in a local SQLite database
// and exposes it through an observable view model.
//
// Example usage:
//
//	app, err := forage.Open(ctx, "/path/to/forage.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer app.Close()
//
//	app.Model.AddForageable("Chanterelle", "North ridge", true, "")
//	for items := range app.Model.Forageables().Subscribe(ctx) {
//	    fmt.Println(len(items))
//	}
package forage

import (
	"context"
	"errors"

	"github.com/bft-labs/forage/internal/adapters/sqlite"
	"github.com/bft-labs/forage/internal/domain"
	"github.com/bft-labs/forage/pkg/log"
	"github.com/bft-labs/forage/pkg/viewmodel"
)

// Forageable is one foraging spot.
type Forageable = domain.Forageable

// Errors returned by this package and its view models.
var (
	ErrUnsupportedType = domain.ErrUnsupportedType
	ErrNotFound        = domain.ErrNotFound
	ErrShutdownTimeout = domain.ErrShutdownTimeout
)

// App pairs an open database with the view model reading and writing it.
type App struct {
	Model *viewmodel.ForageableViewModel
	store *sqlite.Store
}

// Option configures Open.
type Option func(*openOptions)

type openOptions struct {
	logger    log.Logger
	watchFile bool
	vmOpts    []viewmodel.Option
}

// WithLogger sets the logger used by the database and the view model.
func WithLogger(logger log.Logger) Option {
	return func(o *openOptions) { o.logger = logger }
}

// WithFileWatch re-emits live views when other processes write the database.
func WithFileWatch(enabled bool) Option {
	return func(o *openOptions) { o.watchFile = enabled }
}

// WithViewModelOptions passes extra options to the view model.
func WithViewModelOptions(opts ...viewmodel.Option) Option {
	return func(o *openOptions) { o.vmOpts = append(o.vmOpts, opts...) }
}

// Open opens (creating if needed) the database at path and builds a view
// model whose lifetime is bounded by ctx.
func Open(ctx context.Context, path string, opts ...Option) (*App, error) {
	var o openOptions
	for _, opt := range opts {
		opt(&o)
	}
	logger := log.OrNoop(o.logger)

	store, err := sqlite.Open(path, sqlite.WithLogger(logger), sqlite.WithFileWatch(o.watchFile))
	if err != nil {
		return nil, err
	}

	vmOpts := append([]viewmodel.Option{viewmodel.WithContext(ctx), viewmodel.WithLogger(logger)}, o.vmOpts...)
	vm, err := viewmodel.Create[*viewmodel.ForageableViewModel](viewmodel.NewFactory(store, vmOpts...))
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &App{Model: vm, store: store}, nil
}

// Close waits for submitted writes up to the view model's shutdown
// timeout, closes the view model, then the database.
func (a *App) Close() error {
	return errors.Join(a.Model.Flush(), a.Model.Close(), a.store.Close())
}
