// Package watcher provides live monitoring of session log directories,
// emitting debounced events as transcripts grow and alerts when usage
// crosses thresholds.
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventType classifies a session file change.
type EventType string

const (
	EventCreate EventType = "create"
	EventModify EventType = "modify"
	EventDelete EventType = "delete"
)

// Event is a debounced change to one session transcript.
type Event struct {
	Path        string
	SessionID   string
	ProjectHash string
	Type        EventType
}

// Watcher watches <home>/projects/ for transcript changes. New project
// directories are picked up as they appear.
type Watcher struct {
	home     string
	debounce time.Duration
	callback func(Event)
	fs       *fsnotify.Watcher

	done    chan struct{}
	started bool
	closed  bool
	mu      sync.Mutex

	timers  map[string]*time.Timer
	timerMu sync.Mutex
}

// New creates a Watcher over the given data directory. The projects
// directory and every project subdirectory present at creation time are
// watched; events for the same file within the debounce window collapse
// into one callback.
func New(home string, debounce time.Duration, callback func(Event)) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	projectsDir := filepath.Join(home, "projects")
	if err := fs.Add(projectsDir); err != nil {
		_ = fs.Close()
		return nil, fmt.Errorf("watching %s: %w", projectsDir, err)
	}

	entries, err := os.ReadDir(projectsDir)
	if err == nil {
		for _, e := range entries {
			if e.IsDir() {
				// Best effort; a vanished directory is not fatal.
				_ = fs.Add(filepath.Join(projectsDir, e.Name()))
			}
		}
	}

	return &Watcher{
		home:     home,
		debounce: debounce,
		callback: callback,
		fs:       fs,
		done:     make(chan struct{}),
		timers:   make(map[string]*time.Timer),
	}, nil
}

// Start begins delivering events. It may be called once.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("watcher is closed")
	}
	if w.started {
		return fmt.Errorf("watcher already started")
	}
	w.started = true

	go w.loop()
	return nil
}

// Close stops the watcher and cancels pending debounce timers.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.started {
		close(w.done)
	}

	w.timerMu.Lock()
	for _, t := range w.timers {
		t.Stop()
	}
	w.timers = make(map[string]*time.Timer)
	w.timerMu.Unlock()

	return w.fs.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(event)
		case _, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			// Errors are transient (usually a removed watch); keep going.
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	// A new project directory: start watching it.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.fs.Add(event.Name)
			return
		}
	}

	if !strings.HasSuffix(event.Name, ".jsonl") {
		return
	}

	var typ EventType
	switch {
	case event.Op.Has(fsnotify.Create):
		typ = EventCreate
	case event.Op.Has(fsnotify.Write):
		typ = EventModify
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		typ = EventDelete
	default:
		return
	}

	w.schedule(Event{
		Path:        event.Name,
		SessionID:   strings.TrimSuffix(filepath.Base(event.Name), ".jsonl"),
		ProjectHash: filepath.Base(filepath.Dir(event.Name)),
		Type:        typ,
	})
}

func (w *Watcher) schedule(e Event) {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if t, ok := w.timers[e.Path]; ok {
		t.Stop()
	}
	w.timers[e.Path] = time.AfterFunc(w.debounce, func() {
		w.timerMu.Lock()
		delete(w.timers, e.Path)
		w.timerMu.Unlock()

		w.callback(e)
	})
}
