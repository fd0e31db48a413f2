package scan

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/franz/melodeon/internal/store"
	"github.com/franz/melodeon/internal/util"
)

// settleDelay is how long a changed file must be quiet before it is
// rescanned. Rippers and download managers write in bursts; reacting to
// the first event reads half-written files.
const settleDelay = 2 * time.Second

// Watcher keeps the track table in sync with live filesystem changes
type Watcher struct {
	scanner *Scanner
	store   *store.Store
}

// NewWatcher creates a Watcher sharing the given scanner
func NewWatcher(scanner *Scanner, st *store.Store) *Watcher {
	return &Watcher{scanner: scanner, store: st}
}

// Watch blocks, applying filesystem events under root to the track
// table until ctx is cancelled. New directories are added to the watch
// as they appear.
func (w *Watcher) Watch(ctx context.Context, root string) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := watchTree(fsw, root); err != nil {
		return err
	}
	util.InfoLog("Watching %s for changes", root)

	// Paths with a pending change, flushed once they settle
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(settleDelay / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, event, pending)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			util.WarnLog("Watch: %v", err)

		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < settleDelay {
					continue
				}
				delete(pending, path)
				if _, err := w.scanner.scanFile(path); err != nil {
					util.WarnLog("Watch: rescan %s: %v", path, err)
				} else {
					util.DebugLog("Watch: rescanned %s", path)
				}
			}
		}
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event, pending map[string]time.Time) {
	path := event.Name

	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		delete(pending, path)
		if err := store.MarkTrackMissing(w.store.DB(), path); err != nil {
			util.WarnLog("Watch: mark missing %s: %v", path, err)
		}
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := watchTree(fsw, path); err != nil {
				util.WarnLog("Watch: add %s: %v", path, err)
			}
			return
		}
	}

	if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
		if audioExtensions[strings.ToLower(filepath.Ext(path))] {
			pending[path] = time.Now()
		}
	}
}

// watchTree registers a directory and all its non-hidden subdirectories
func watchTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if name := d.Name(); path != root && strings.HasPrefix(name, ".") {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}
