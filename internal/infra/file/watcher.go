package file

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reports catalog files that changed on disk so caches can drop them.
// Rapid saves of the same file collapse into one notification.
type Watcher struct {
	dir      string
	onChange func(catalogID string)
	debounce time.Duration
	logger   *zap.Logger

	watcher *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]time.Time
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewWatcher(dir string, debounce time.Duration, onChange func(catalogID string), logger *zap.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		dir:      dir,
		onChange: onChange,
		debounce: debounce,
		logger:   logger,
		watcher:  w,
		pending:  make(map[string]time.Time),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. It returns once the directory is registered.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	if err := w.watcher.Add(w.dir); err != nil {
		w.mu.Unlock()
		return err
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("watching catalogs", zap.String("dir", w.dir))
	go w.run(ctx)
	return nil
}

// Stop ends the event loop and releases the OS watch. It is safe to call
// on a watcher that never started.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}
	return w.watcher.Close()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := time.NewTicker(w.debounce / 2)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("catalog watch error", zap.Error(err))
		case now := <-tick.C:
			w.flush(now)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	id, ok := CatalogID(event.Name)
	if !ok {
		return
	}
	w.logger.Debug("catalog file event", zap.String("catalog", id), zap.String("op", event.Op.String()))
	w.mu.Lock()
	w.pending[id] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) flush(now time.Time) {
	var ready []string
	w.mu.Lock()
	for id, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			ready = append(ready, id)
			delete(w.pending, id)
		}
	}
	w.mu.Unlock()

	for _, id := range ready {
		w.logger.Info("catalog changed", zap.String("catalog", id))
		w.onChange(id)
	}
}
