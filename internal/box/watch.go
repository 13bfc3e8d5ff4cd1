package box

import (
	"os"
	"sync"
	"time"
)

// Watcher polls modification times and triggers a callback on change.
// The path list is refreshed on every scan so boxes added later are picked up.
type Watcher struct {
	Interval  time.Duration
	list      func() []string
	onChange  func(string) // called with path that changed
	stopCh    chan struct{}
	stopOnce  sync.Once
	lastMTime map[string]time.Time
}

// NewWatcher creates a watcher over the paths list returns, polling every interval.
func NewWatcher(list func() []string, interval time.Duration, onChange func(string)) *Watcher {
	return &Watcher{
		Interval:  interval,
		list:      list,
		onChange:  onChange,
		stopCh:    make(chan struct{}),
		lastMTime: make(map[string]time.Time),
	}
}

// WatchLoader invalidates l whenever one of its box files changes.
func WatchLoader(l *Loader, interval time.Duration, onChange func(string)) *Watcher {
	return NewWatcher(l.WatchPaths, interval, func(path string) {
		l.Invalidate()
		if onChange != nil {
			onChange(path)
		}
	})
}

// Start begins polling in a goroutine.
func (w *Watcher) Start() {
	ticker := time.NewTicker(w.Interval)
	// prime cache before returning so a change right after Start is seen
	w.scan(true)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.scan(false)
			case <-w.stopCh:
				return
			}
		}
	}()
}

// Stop terminates the watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

// scan checks mtimes and invokes onChange for paths that changed since the last scan.
func (w *Watcher) scan(prime bool) {
	for _, p := range w.list() {
		fi, err := os.Stat(p)
		if err != nil {
			// missing file: forget it so reappearing counts as a change
			if _, ok := w.lastMTime[p]; ok {
				delete(w.lastMTime, p)
				if !prime && w.onChange != nil {
					w.onChange(p)
				}
			}
			continue
		}
		mt := fi.ModTime()
		last, ok := w.lastMTime[p]
		w.lastMTime[p] = mt
		if prime {
			continue
		}
		if !ok || mt.After(last) {
			if w.onChange != nil {
				w.onChange(p)
			}
		}
	}
}
