// Package sqlite provides the SQLite-backed ForageableDAO.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	msqlite "modernc.org/sqlite"

	"github.com/bft-labs/forage/internal/adapters/sqlite/migrations"
	"github.com/bft-labs/forage/internal/domain"
	"github.com/bft-labs/forage/internal/ports"
	"github.com/bft-labs/forage/pkg/log"
)

// Store persists forageables in SQLite and streams changes to observers.
type Store struct {
	db      *sql.DB
	path    string
	logger  log.Logger
	tracker *invalidationTracker
	watcher *fileWatcher

	// writeMu serializes writes so every commit produces exactly one invalidation.
	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

var _ ports.ForageableDAO = (*Store)(nil)

// Option configures a Store.
type Option func(*options)

type options struct {
	logger    log.Logger
	watchFile bool
	debounce  time.Duration
}

// WithLogger sets the store logger.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithFileWatch makes observers re-query when another process writes the
// database file. Writes made through this Store always notify observers.
func WithFileWatch(enabled bool) Option {
	return func(o *options) {
		o.watchFile = enabled
	}
}

// WithDebounce sets the quiet period used by the file watcher.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		o.debounce = d
	}
}

// Open opens (creating if needed) the database at path and applies migrations.
func Open(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	o := options{debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(&o)
	}
	logger := log.OrNoop(o.logger).With(log.String("component", "sqlite"))

	cleanPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("resolve storage path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o750); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	dsn := "file:" + cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &Store{
		db:      db,
		path:    cleanPath,
		logger:  logger,
		tracker: newInvalidationTracker(),
	}

	if o.watchFile {
		s.watcher = newFileWatcher(cleanPath, o.debounce, s.tracker.bump, logger)
		if err := s.watcher.start(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("watch database file: %w", err)
		}
	}

	logger.Debug("store opened", log.String("path", cleanPath), log.Bool("watch_file", o.watchFile))
	return s, nil
}

// Path returns the absolute database path.
func (s *Store) Path() string {
	return s.path
}

// Close stops the file watcher and closes the database. Safe to call twice.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		if s.watcher != nil {
			s.watcher.stop()
		}
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

// Insert stores f with a fresh ID. Conflicts are ignored and return ID 0,
// mirroring an INSERT OR IGNORE policy.
func (s *Store) Insert(ctx context.Context, f domain.Forageable) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO forageable_database (name, address, in_season, notes)
		 VALUES (?, ?, ?, ?)`,
		f.Name, f.Address, f.InSeason, f.Notes,
	)
	if err != nil {
		return 0, s.wrap("insert forageable", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("insert forageable: rows affected: %w", err)
	}
	if n == 0 {
		s.logger.Debug("insert ignored", log.String("name", f.Name))
		return 0, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert forageable: last insert id: %w", err)
	}

	s.tracker.bump()
	s.logger.Debug("inserted", log.ID(id))
	return id, nil
}

// Update replaces the record with f.ID. Updating a missing record is a no-op.
func (s *Store) Update(ctx context.Context, f domain.Forageable) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE forageable_database
		    SET name = ?, address = ?, in_season = ?, notes = ?
		  WHERE id = ?`,
		f.Name, f.Address, f.InSeason, f.Notes, f.ID,
	)
	if err != nil {
		return s.wrap("update forageable", err)
	}
	return s.afterWrite("updated", f.ID, res)
}

// Delete removes the record with f.ID. Deleting a missing record is a no-op.
func (s *Store) Delete(ctx context.Context, f domain.Forageable) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM forageable_database WHERE id = ?`, f.ID)
	if err != nil {
		return s.wrap("delete forageable", err)
	}
	return s.afterWrite("deleted", f.ID, res)
}

func (s *Store) afterWrite(op string, id int64, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s forageable: rows affected: %w", op, err)
	}
	if n == 0 {
		s.logger.Debug(op+" nothing", log.ID(id))
		return nil
	}
	s.tracker.bump()
	s.logger.Debug(op, log.ID(id))
	return nil
}

// List returns every record ordered by ID.
func (s *Store) List(ctx context.Context) ([]domain.Forageable, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, address, in_season, notes
		   FROM forageable_database
		  ORDER BY id`)
	if err != nil {
		return nil, s.wrap("list forageables", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]domain.Forageable, 0)
	for rows.Next() {
		var f domain.Forageable
		if err := rows.Scan(&f.ID, &f.Name, &f.Address, &f.InSeason, &f.Notes); err != nil {
			return nil, fmt.Errorf("scan forageable: %w", err)
		}
		items = append(items, f)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap("list forageables", err)
	}
	return items, nil
}

// Get returns one record, or domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (domain.Forageable, error) {
	var f domain.Forageable
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, address, in_season, notes
		   FROM forageable_database
		  WHERE id = ?`, id,
	).Scan(&f.ID, &f.Name, &f.Address, &f.InSeason, &f.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Forageable{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Forageable{}, s.wrap("get forageable", err)
	}
	return f, nil
}

// ObserveAll streams the full collection: once now, then after every change.
func (s *Store) ObserveAll(ctx context.Context) <-chan []domain.Forageable {
	out := make(chan []domain.Forageable)
	go func() {
		defer close(out)
		s.observe(ctx, "observe all", func() error {
			items, err := s.List(ctx)
			if err != nil {
				return err
			}
			select {
			case out <- items:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()
	return out
}

// Observe streams the record with id. Nothing is emitted while the record
// does not exist; emissions resume if it is created later.
func (s *Store) Observe(ctx context.Context, id int64) <-chan domain.Forageable {
	out := make(chan domain.Forageable)
	go func() {
		defer close(out)
		s.observe(ctx, "observe one", func() error {
			f, err := s.Get(ctx, id)
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			select {
			case out <- f:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()
	return out
}

// observe runs query now and after every invalidation until ctx is done.
// The change channel is taken before querying so no commit is missed.
func (s *Store) observe(ctx context.Context, name string, query func() error) {
	for {
		_, changed := s.tracker.current()
		if err := query(); err != nil && ctx.Err() == nil {
			s.logger.Warn(name+" query failed", log.Err(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-changed:
		}
	}
}

// wrap annotates driver errors with the SQLite result code.
func (s *Store) wrap(op string, err error) error {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		return fmt.Errorf("%s (sqlite code %d): %w", op, sqliteErr.Code(), err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
