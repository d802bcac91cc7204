package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/forage/pkg/log"
)

// DefaultDebounce is the quiet period after an external write before observers re-query.
const DefaultDebounce = 100 * time.Millisecond

// fileWatcher invalidates observers when another process writes the database.
// It watches the directory so it sees the -wal file being created.
type fileWatcher struct {
	dbPath   string
	debounce time.Duration
	onChange func()
	logger   log.Logger

	mu     sync.Mutex
	timer  *time.Timer
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newFileWatcher(dbPath string, debounce time.Duration, onChange func(), logger log.Logger) *fileWatcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &fileWatcher{
		dbPath:   dbPath,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
	}
}

func (w *fileWatcher) start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(w.dbPath)); err != nil {
		_ = watcher.Close()
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.wg.Add(1)
	go w.loop(ctx, watcher)
	return nil
}

// relevant reports whether an event touches the database or its write-ahead log.
// The -shm file is ignored: readers touch it too.
func (w *fileWatcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	name := filepath.Clean(event.Name)
	return name == w.dbPath || name == w.dbPath+"-wal"
}

func (w *fileWatcher) loop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer w.wg.Done()
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if w.relevant(event) {
				w.schedule()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("database watcher error", log.Err(err))
		}
	}
}

func (w *fileWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onChange)
}

func (w *fileWatcher) stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
}
