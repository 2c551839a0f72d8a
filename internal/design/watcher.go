package design

import (
	"context"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/loomhq/loom/internal/store"
)

// Watcher keeps a designs directory synced into the store: design files are
// loaded on start and reloaded on change, so edits take effect without a
// restart.
type Watcher struct {
	dir     string
	store   store.Store
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher syncs the directory into the store once, then starts watching
// it for changes.
func NewWatcher(ctx context.Context, dir string, st store.Store) (*Watcher, error) {
	w := &Watcher{
		dir:   dir,
		store: st,
		done:  make(chan struct{}),
	}
	if err := w.syncAll(ctx); err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		// Initial sync succeeded; run without hot reload.
		log.Printf("[design.watch] WARNING: watcher unavailable, designs load once: %v", err)
		return w, nil
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		log.Printf("[design.watch] WARNING: cannot watch %s, designs load once: %v", dir, err)
		return w, nil
	}
	w.watcher = fw
	go w.watch(ctx)
	return w, nil
}

// syncAll loads every design file in the directory into the store.
func (w *Watcher) syncAll(ctx context.Context) error {
	designs, err := LoadDir(w.dir)
	if err != nil {
		return err
	}
	for _, d := range designs {
		if err := w.store.PutDesign(ctx, d); err != nil {
			return err
		}
	}
	log.Printf("[design.watch] loaded %d designs from %s", len(designs), w.dir)
	return nil
}

// watch reloads changed design files. A file that fails to parse is logged
// and skipped; the previously stored version stays in effect.
func (w *Watcher) watch(ctx context.Context) {
	for {
		select {
		case <-w.done:
			return
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isDesignFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			d, err := LoadFile(event.Name)
			if err != nil {
				log.Printf("[design.watch] %s not reloaded: %v", filepath.Base(event.Name), err)
				continue
			}
			if err := w.store.PutDesign(ctx, d); err != nil {
				log.Printf("[design.watch] %s not stored: %v", filepath.Base(event.Name), err)
				continue
			}
			debugLog("[design.watch] reloaded design %s from %s", d.ID, filepath.Base(event.Name))
		case <-w.watcher.Errors:
			// Keep watching.
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() {
	close(w.done)
	if w.watcher != nil {
		w.watcher.Close()
	}
}

// debugLog is an optional package-level logging hook, no-op by default.
var debugLog = func(format string, args ...interface{}) {}

// SetDebugLog sets the package-level debug logging function.
func SetDebugLog(fn func(format string, args ...interface{})) {
	if fn != nil {
		debugLog = fn
	}
}
