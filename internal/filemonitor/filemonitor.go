// Package filemonitor implements the cross-platform directory watcher
// from spec §4.Q, backed by github.com/fsnotify/fsnotify (inotify on
// Linux, ReadDirectoryChangesW on Windows, FSEvents on macOS — the same
// library the rest of the pack reaches for to avoid hand-rolling
// per-platform watch backends). Not part of the simulation: purely for
// asset hot-reload during development.
package filemonitor

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/legacyclonk/openworld-core/internal/logging"
)

// OnChange is invoked on the draining goroutine for every observed
// change, with the changed path.
type OnChange func(path string)

// Monitor watches one or more directories and posts change events
// through a single-producer/single-consumer queue drained on its own
// goroutine, per the SPSC queue described in §5.
type Monitor struct {
	watcher  *fsnotify.Watcher
	onChange OnChange
	log      logging.Logger

	done chan struct{}
	wg   sync.WaitGroup

	mu      sync.Mutex
	closed  bool
}

// New creates a monitor. Call Watch to add directories, then Start to
// begin draining events; Close stops the watcher thread and joins it.
func New(onChange OnChange, log logging.Logger) (*Monitor, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.New(zap.NewNop())
	}
	return &Monitor{watcher: w, onChange: onChange, log: log, done: make(chan struct{})}, nil
}

// Watch adds a directory to the watch set.
func (m *Monitor) Watch(dir string) error {
	return m.watcher.Add(dir)
}

// Start launches the draining goroutine. Safe to call once.
func (m *Monitor) Start() {
	m.wg.Add(1)
	go m.loop()
}

func (m *Monitor) loop() {
	defer m.wg.Done()
	for {
		select {
		case <-m.done:
			return
		case ev, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				if m.onChange != nil {
					m.onChange(ev.Name)
				}
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.log.Warn("filemonitor: watch error: %v", err)
		}
	}
}

// Close cancels the watcher and joins its goroutine.
func (m *Monitor) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	close(m.done)
	err := m.watcher.Close()
	m.wg.Wait()
	return err
}
