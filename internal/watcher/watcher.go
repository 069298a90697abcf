// Package watcher reports layout and corpus files once they settle after
// an edit.
package watcher

import (
	"context"
	"crypto/sha256"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event is a file that changed and has been stable for the debounce
// interval.
type Event struct {
	Path      string
	Size      int64
	Timestamp time.Time
}

// Watcher monitors files and directories for changes. A watched directory
// reports every regular file in it; a watched file reports only itself.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	paths     []string
	debounce  time.Duration
	tick      time.Duration

	// files holds explicitly watched files; dirs holds watched directories.
	files map[string]bool
	dirs  map[string]bool

	// pending: path -> time of last change
	pending   map[string]time.Time
	digests   map[string][32]byte
	pendingMu sync.RWMutex

	events chan Event
	errors chan error

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a watcher over paths. Each path may be a file or a directory.
func New(paths []string, debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	tick := debounce / 4
	if tick <= 0 || tick > 250*time.Millisecond {
		tick = 250 * time.Millisecond
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		paths:     paths,
		debounce:  debounce,
		tick:      tick,
		files:     make(map[string]bool),
		dirs:      make(map[string]bool),
		pending:   make(map[string]time.Time),
		digests:   make(map[string][32]byte),
		events:    make(chan Event, 64),
		errors:    make(chan error, 8),
		done:      make(chan struct{}),
	}, nil
}

// Events returns the channel of settled files.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Start begins watching. Files present at start are reported once the
// debounce interval has passed, so callers get an initial event per file.
func (w *Watcher) Start() error {
	for _, path := range w.paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return err
		}

		info, err := os.Stat(absPath)
		if err != nil {
			return err
		}

		if info.IsDir() {
			if err := w.fsWatcher.Add(absPath); err != nil {
				return err
			}
			w.dirs[absPath] = true

			entries, err := os.ReadDir(absPath)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				if !entry.IsDir() {
					w.markPending(filepath.Join(absPath, entry.Name()), time.Now())
				}
			}
			continue
		}

		// Editors replace files on save, so the directory is watched.
		if err := w.fsWatcher.Add(filepath.Dir(absPath)); err != nil {
			return err
		}
		w.files[absPath] = true
		w.markPending(absPath, time.Now())
	}

	w.wg.Add(2)
	go w.eventLoop()
	go w.debounceLoop()
	return nil
}

// Stop shuts the watcher down and closes its channels.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		w.wg.Wait()
		close(w.events)
		close(w.errors)
		err = w.fsWatcher.Close()
	})
	return err
}

// Run starts the watcher and calls fn for each event until ctx is done.
// Errors from the underlying watcher are passed to onErr when it is non-nil.
func (w *Watcher) Run(ctx context.Context, fn func(Event), onErr func(error)) error {
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-w.events:
			fn(ev)
		case err := <-w.errors:
			if onErr != nil {
				onErr(err)
			}
		}
	}
}

func (w *Watcher) relevant(path string) bool {
	return w.files[path] || w.dirs[filepath.Dir(path)]
}

func (w *Watcher) markPending(path string, at time.Time) {
	w.pendingMu.Lock()
	w.pending[path] = at
	w.pendingMu.Unlock()
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			path := filepath.Clean(event.Name)
			if !w.relevant(path) {
				continue
			}
			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				continue
			}
			w.markPending(path, time.Now())

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.sendErr(err)
		}
	}
}

func (w *Watcher) debounceLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case now := <-ticker.C:
			w.checkStableFiles(now)
		}
	}
}

type stableFile struct {
	path    string
	lastMod time.Time
}

// checkStableFiles emits files that have not changed for the debounce
// interval. The lock is released while files are read.
func (w *Watcher) checkStableFiles(now time.Time) {
	threshold := now.Add(-w.debounce)

	var stable []stableFile
	w.pendingMu.RLock()
	for path, lastMod := range w.pending {
		if !lastMod.After(threshold) {
			stable = append(stable, stableFile{path: path, lastMod: lastMod})
		}
	}
	w.pendingMu.RUnlock()

	if len(stable) == 0 {
		return
	}

	type digestResult struct {
		stableFile
		digest [32]byte
		size   int64
		err    error
	}
	results := make([]digestResult, len(stable))
	for i, sf := range stable {
		digest, size, err := Digest(sf.path)
		results[i] = digestResult{stableFile: sf, digest: digest, size: size, err: err}
	}

	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	for _, r := range results {
		if current, ok := w.pending[r.path]; !ok || !current.Equal(r.lastMod) {
			// Changed again while being read.
			continue
		}
		if r.err != nil {
			delete(w.pending, r.path)
			if !os.IsNotExist(r.err) {
				w.sendErr(r.err)
			}
			continue
		}
		if prev, seen := w.digests[r.path]; seen && prev == r.digest {
			// Saved without changes.
			delete(w.pending, r.path)
			continue
		}

		select {
		case w.events <- Event{Path: r.path, Size: r.size, Timestamp: now}:
			delete(w.pending, r.path)
			w.digests[r.path] = r.digest
		default:
			// Channel full; retry on the next tick.
		}
	}
}

func (w *Watcher) sendErr(err error) {
	select {
	case w.errors <- err:
	default:
	}
}

// Digest returns the SHA-256 of a file's content and its size.
func Digest(path string) ([32]byte, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return [32]byte{}, 0, err
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return [32]byte{}, 0, err
	}

	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum, size, nil
}

// WatchedPaths returns the paths given to New.
func (w *Watcher) WatchedPaths() []string {
	return w.paths
}

// PendingFiles returns the number of files waiting to settle.
func (w *Watcher) PendingFiles() int {
	w.pendingMu.RLock()
	defer w.pendingMu.RUnlock()
	return len(w.pending)
}
