package dirmon

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// EventMonitor watches a directory using the host's native file-change
// notification (inotify, kqueue, ReadDirectoryChangesW — whatever
// fsnotify selects), with a single loop goroutine fanning events out to
// one channel.
type EventMonitor struct {
	dir     string
	watcher *fsnotify.Watcher
	events  chan Event

	mu      sync.Mutex
	knownDirs map[string]bool

	stopOnce sync.Once
	done     chan struct{}
}

// NewEventMonitor creates an EventMonitor for dir. Start must be called
// before events are delivered.
func NewEventMonitor(dir string) *EventMonitor {
	return &EventMonitor{
		dir:       dir,
		events:    make(chan Event, 64),
		knownDirs: make(map[string]bool),
		done:      make(chan struct{}),
	}
}

// Start implements Monitor.
func (m *EventMonitor) Start() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("dirmon: creating watcher: %w", err)
	}
	if err := w.Add(m.dir); err != nil {
		w.Close()
		return fmt.Errorf("dirmon: watching %q: %w", m.dir, err)
	}
	m.watcher = w

	entries, err := os.ReadDir(m.dir)
	if err == nil {
		m.mu.Lock()
		for _, e := range entries {
			m.knownDirs[filepath.Join(m.dir, e.Name())] = e.IsDir()
		}
		m.mu.Unlock()
	}

	go m.loop()
	return nil
}

// Stop implements Monitor.
func (m *EventMonitor) Stop() error {
	var err error
	m.stopOnce.Do(func() {
		if m.watcher != nil {
			err = m.watcher.Close()
		}
		<-m.done
		close(m.events)
	})
	return err
}

// Events implements Monitor.
func (m *EventMonitor) Events() <-chan Event {
	return m.events
}

func (m *EventMonitor) loop() {
	defer close(m.done)

	for {
		select {
		case ev, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			m.handle(ev)
		case _, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (m *EventMonitor) handle(ev fsnotify.Event) {
	name := ev.Name

	switch {
	case ev.Op&(fsnotify.Create) != 0:
		info, err := os.Stat(name)
		isDir := err == nil && info.IsDir()

		m.mu.Lock()
		m.knownDirs[name] = isDir
		m.mu.Unlock()

		m.emit(Event{Kind: classifyCreate(info), Path: name})

	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		m.mu.Lock()
		wasDir := m.knownDirs[name]
		delete(m.knownDirs, name)
		m.mu.Unlock()

		m.emit(Event{Kind: classifyDelete(wasDir), Path: name})
	}
}

func (m *EventMonitor) emit(e Event) {
	m.events <- e
}
