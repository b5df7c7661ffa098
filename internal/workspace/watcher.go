package workspace

import (
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ralphlab/ralph/internal/logging"
)

// Watcher reports debounced change notifications for a workspace
// directory. Bursts of writes within the debounce window collapse into a
// single event.
type Watcher struct {
	store    *Store
	watcher  *fsnotify.Watcher
	events   chan struct{}
	done     chan struct{}
	debounce time.Duration
	wg       sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// NewWatcher creates a watcher for the store's directory. The workspace
// must exist before Start is called.
func NewWatcher(store *Store) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		store:    store,
		watcher:  fw,
		events:   make(chan struct{}, 1),
		done:     make(chan struct{}),
		debounce: 250 * time.Millisecond,
	}, nil
}

// Events delivers one notification per settled burst of workspace writes.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Start begins watching the workspace directory.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("watcher already running")
	}

	if err := w.watcher.Add(w.store.Dir()); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.store.Dir(), err)
	}

	w.running = true
	w.wg.Add(1)
	go w.run()
	return nil
}

// Stop shuts the watcher down and closes the events channel.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.running = false

	close(w.done)
	w.watcher.Close()
	w.wg.Wait()
	close(w.events)
}

func (w *Watcher) run() {
	defer w.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			select {
			case w.events <- struct{}{}:
			default:
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Warn("workspace watcher error", "error", err)
		}
	}
}
