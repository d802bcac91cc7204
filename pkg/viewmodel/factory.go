package viewmodel

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/bft-labs/forage/internal/domain"
	"github.com/bft-labs/forage/internal/ports"
)

// Factory builds view models bound to one DAO.
type Factory struct {
	dao  ports.ForageableDAO
	opts []Option
}

// NewFactory returns a factory that passes dao and opts to every view model it builds.
func NewFactory(dao ports.ForageableDAO, opts ...Option) *Factory {
	return &Factory{dao: dao, opts: opts}
}

// Create builds a new view model of type T. T must be satisfied by
// *ForageableViewModel; any other type yields domain.ErrUnsupportedType.
func Create[T ViewModel](f *Factory) (T, error) {
	var zero T
	if !supports[T]() {
		return zero, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, typeName[T]())
	}
	return any(New(f.dao, f.opts...)).(T), nil
}

// supports reports whether a *ForageableViewModel can be returned as T.
func supports[T ViewModel]() bool {
	want := reflect.TypeOf((*T)(nil)).Elem()
	return reflect.TypeOf((*ForageableViewModel)(nil)).AssignableTo(want)
}

func typeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}

// Store keeps one view model per key, like a screen's view model store.
// Clear closes everything it holds.
type Store struct {
	mu     sync.Mutex
	models map[string]ViewModel
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{models: make(map[string]ViewModel)}
}

// Get returns the view model cached under key, creating it with f on first use.
// A cached entry of a different type is an error.
func Get[T ViewModel](s *Store, key string, f *Factory) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	if existing, ok := s.models[key]; ok {
		t, ok := existing.(T)
		if !ok {
			return zero, fmt.Errorf("%w: key %q holds %T, not %s",
				domain.ErrUnsupportedType, key, existing, typeName[T]())
		}
		return t, nil
	}

	t, err := Create[T](f)
	if err != nil {
		return zero, err
	}
	s.models[key] = t
	return t, nil
}

// Len returns the number of cached view models.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.models)
}

// Clear closes and forgets every cached view model. It returns the first
// Close error, after closing all of them.
func (s *Store) Clear() error {
	s.mu.Lock()
	models := s.models
	s.models = make(map[string]ViewModel)
	s.mu.Unlock()

	var first error
	for _, vm := range models {
		if err := vm.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
