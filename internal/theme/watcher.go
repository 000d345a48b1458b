package theme

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"themecheck/internal/source"
)

// DefaultDebounce is the quiet period before a batch of changes is emitted.
const DefaultDebounce = 150 * time.Millisecond

// Watcher reports changed theme files in debounced batches.
type Watcher struct {
	dir      string
	ignore   func(rel string) bool
	debounce time.Duration
	logger   *slog.Logger
	watcher  *fsnotify.Watcher

	batches  chan []string
	stopOnce sync.Once
}

// NewWatcher watches dir recursively. ignore may be nil.
func NewWatcher(dir string, ignore func(rel string) bool, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{
		dir:      dir,
		ignore:   ignore,
		debounce: debounce,
		logger:   logger,
		watcher:  fw,
		batches:  make(chan []string),
	}
	if err := w.addRecursive(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// Batches delivers sorted, de-duplicated relative paths. It is closed when
// Run returns.
func (w *Watcher) Batches() <-chan []string {
	return w.batches
}

// Close stops watching.
func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() { err = w.watcher.Close() })
	return err
}

func (w *Watcher) skip(rel string, isDir bool) bool {
	if rel == "." {
		return false
	}
	if isDir {
		if _, ok := skipDirs[filepath.Base(rel)]; ok {
			return true
		}
	} else if source.KindForURI(rel) == source.KindUnknown {
		return true
	}
	return w.ignore != nil && w.ignore(rel)
}

func (w *Watcher) rel(path string) (string, bool) {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if rel, ok := w.rel(path); ok && w.skip(rel, true) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// Run forwards batches until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.batches)
	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() bool {
		if timer != nil {
			timer.Stop()
			timer, timerC = nil, nil
		}
		if len(pending) == 0 {
			return true
		}
		batch := make([]string, 0, len(pending))
		for rel := range pending {
			batch = append(batch, rel)
		}
		sort.Strings(batch)
		clear(pending)
		select {
		case w.batches <- batch:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				flush()
				return
			}
			rel, ok := w.rel(ev.Name)
			if !ok {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if !w.skip(rel, true) {
						if err := w.addRecursive(ev.Name); err != nil {
							w.logger.Warn("watch directory", "dir", rel, "err", err)
						}
					}
					continue
				}
			}
			if w.skip(rel, false) {
				continue
			}
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			if !flush() {
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				flush()
				return
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}
