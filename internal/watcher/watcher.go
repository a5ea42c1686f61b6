// Package watcher provides file system watching with debouncing for a register tree.
package watcher

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/paneron/internal/log"
)

// metadataFiles are watched regardless of the item extension.
var metadataFiles = map[string]bool{
	"paneron.yaml":        true,
	"register.yaml":       true,
	"panerondataset.yaml": true,
}

// Watcher monitors a register root for changes and sends the changed paths
// once writes settle.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	root      string
	extension string
	debounce  time.Duration
	onChange  chan []string
	done      chan struct{}
}

// Config holds watcher configuration options.
type Config struct {
	Root        string
	Extension   string
	DebounceDur time.Duration
}

// DefaultConfig returns sensible defaults for the watcher.
func DefaultConfig(root string) Config {
	return Config{
		Root:        root,
		Extension:   "yaml",
		DebounceDur: 500 * time.Millisecond,
	}
}

// New creates a new register watcher.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	ext := strings.TrimPrefix(cfg.Extension, ".")
	if ext == "" {
		ext = "yaml"
	}
	return &Watcher{
		fsWatcher: fsw,
		root:      filepath.Clean(cfg.Root),
		extension: ext,
		debounce:  cfg.DebounceDur,
		onChange:  make(chan []string, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching the root and every directory below it.
// Returns a channel that receives the sorted set of changed paths per batch.
func (w *Watcher) Start() (<-chan []string, error) {
	if err := w.addTree(w.root); err != nil {
		return nil, err
	}

	go w.loop()

	return w.onChange, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

// addTree watches dir and its subdirectories, skipping .git.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path != dir && errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			return fmt.Errorf("watching directory %s: %w", path, err)
		}
		return nil
	})
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending = map[string]struct{}{}
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			w.followNewDirectory(event)
			if !w.isRelevantEvent(event) {
				continue
			}
			pending[event.Name] = struct{}{}

			// Reset or start debounce timer
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if len(pending) > 0 {
				batch := make([]string, 0, len(pending))
				for p := range pending {
					batch = append(batch, p)
				}
				sort.Strings(batch)
				// Non-blocking send - drop if channel full
				select {
				case w.onChange <- batch:
				default:
					log.Debug(log.CatWatcher, "dropped change batch", "paths", len(batch))
				}
				pending = map[string]struct{}{}
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.WarnErr(log.CatWatcher, "watch error", err, "root", w.root)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// followNewDirectory starts watching directories created after Start, such
// as a freshly saved data set or item class.
func (w *Watcher) followNewDirectory(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) || w.inGitDir(event.Name) {
		return
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.addTree(event.Name); err != nil {
		log.WarnErr(log.CatWatcher, "failed to watch new directory", err, "path", event.Name)
	}
}

// isRelevantEvent checks if the event touches register content.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if w.inGitDir(event.Name) {
		return false
	}

	base := filepath.Base(event.Name)
	// Atomic-write temp files start with a dot.
	if strings.HasPrefix(base, ".") {
		return false
	}
	if metadataFiles[base] {
		return true
	}
	if strings.HasSuffix(base, "."+w.extension) {
		return true
	}
	// A removed or renamed directory takes its items with it.
	return event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 && filepath.Ext(base) == ""
}

func (w *Watcher) inGitDir(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	first := strings.SplitN(filepath.ToSlash(rel), "/", 2)[0]
	return first == ".git"
}
