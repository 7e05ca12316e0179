package demo

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// reloadDebounce is how long fixture edits must settle before a reload.
const reloadDebounce = 250 * time.Millisecond

// debouncer coalesces rapid calls into one, running fn only after the
// duration passes without another call. Rapid successive calls reset the
// timer.
type debouncer struct {
	mu       sync.Mutex
	timer    *time.Timer
	duration time.Duration
}

func newDebouncer(duration time.Duration) *debouncer {
	return &debouncer{duration: duration}
}

func (d *debouncer) call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, fn)
}

func (d *debouncer) cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// fixtureWatcher fires onChange when the fixture file changes on disk.
// Editors save through bursts of create/write/rename events, and some
// replace the file outright, so the parent directory is watched and events
// for the file are debounced before onChange runs.
type fixtureWatcher struct {
	watcher  *fsnotify.Watcher
	debounce *debouncer
	done     chan struct{}
}

func watchFixtures(path string, log *zap.Logger, onChange func()) (*fixtureWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, err
	}

	fw := &fixtureWatcher{
		watcher:  watcher,
		debounce: newDebouncer(reloadDebounce),
		done:     make(chan struct{}),
	}
	go func() {
		defer close(fw.done)
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				log.Debug("fixture file changed", zap.String("op", ev.Op.String()))
				fw.debounce.call(onChange)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("fixture watch error", zap.Error(err))
			}
		}
	}()
	return fw, nil
}

// Close stops the watcher and waits for its event loop to exit. A reload
// already in flight is allowed to finish.
func (fw *fixtureWatcher) Close() {
	fw.debounce.cancel()
	fw.watcher.Close()
	<-fw.done
}
