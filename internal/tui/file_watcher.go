package tui

import (
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// fileChangedMsg is sent when the open file changes on disk.
type fileChangedMsg struct {
	path string
}

// FileWatcher watches the directory of the open file and reports writes to
// that file. Editors that save by rename are covered because the directory,
// not the file, is watched.
type FileWatcher struct {
	watcher     *fsnotify.Watcher
	debounceDur time.Duration
	log         zerolog.Logger

	mu     sync.Mutex
	dir    string
	target string
}

// NewFileWatcher creates a watcher. Returns nil when fsnotify is unavailable.
func NewFileWatcher(log zerolog.Logger) *FileWatcher {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn().Err(err).Msg("file watcher unavailable")
		return nil
	}
	return &FileWatcher{
		watcher:     watcher,
		debounceDur: 150 * time.Millisecond,
		log:         log,
	}
}

// Watch switches the watched file. absPath must be absolute.
func (w *FileWatcher) Watch(absPath string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	dir := filepath.Dir(absPath)
	if dir != w.dir {
		if w.dir != "" {
			_ = w.watcher.Remove(w.dir)
		}
		if err := w.watcher.Add(dir); err != nil {
			w.dir = ""
			return err
		}
		w.dir = dir
	}
	w.target = absPath
	return nil
}

func (w *FileWatcher) isTarget(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return filepath.Clean(name) == w.target
}

// Start returns a command that blocks until the watched file changes. The
// caller must re-invoke Start after handling the message.
func (w *FileWatcher) Start() tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return nil
				}
				if !w.isTarget(event.Name) || !event.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}

				// Debounce: wait for changes to settle
				time.Sleep(w.debounceDur)

				drained := false
				for !drained {
					select {
					case <-w.watcher.Events:
					default:
						drained = true
					}
				}

				return fileChangedMsg{path: event.Name}

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return nil
				}
				w.log.Debug().Err(err).Msg("file watcher error")
			}
		}
	}
}

// Close stops the watcher.
func (w *FileWatcher) Close() error {
	return w.watcher.Close()
}
