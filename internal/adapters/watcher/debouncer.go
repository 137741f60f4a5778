// Package watcher implements file system watching for watch mode.
package watcher

import (
	"slices"
	"strings"
	"sync"
	"time"
	"unique"

	"go.trai.ch/pico/internal/core/ports"
)

// Debouncer coalesces rapid file system events into batches. Only the last
// operation seen for a path within a window is kept.
type Debouncer struct {
	mu         sync.Mutex
	// delivering orders callbacks: it is taken before mu is released.
	delivering sync.Mutex
	pending    map[unique.Handle[string]]ports.WatchOp
	timer      *time.Timer
	window     time.Duration
	callback   func(events []ports.WatchEvent)
}

// NewDebouncer creates a new debouncer with the given time window and callback.
func NewDebouncer(window time.Duration, callback func(events []ports.WatchEvent)) *Debouncer {
	return &Debouncer{
		pending:  make(map[unique.Handle[string]]ports.WatchOp),
		window:   window,
		callback: callback,
	}
}

// Add records an event and restarts the window.
func (d *Debouncer) Add(event ports.WatchEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending[unique.Make(event.Path)] = event.Operation

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

// fire is called when the debounce window expires. Batches reach the callback
// in the order they were drained.
func (d *Debouncer) fire() {
	d.mu.Lock()
	d.timer = nil
	events := d.drainLocked()
	d.delivering.Lock()
	d.mu.Unlock()
	defer d.delivering.Unlock()

	if len(events) > 0 && d.callback != nil {
		d.callback(events)
	}
}

// Flush delivers every pending event now and waits for the callback.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		if !d.timer.Stop() {
			// Timer already fired, let it complete rather than processing twice.
			d.mu.Unlock()
			return
		}
		d.timer = nil
	}
	events := d.drainLocked()
	d.delivering.Lock()
	d.mu.Unlock()
	defer d.delivering.Unlock()

	if len(events) > 0 && d.callback != nil {
		d.callback(events)
	}
}

// Stop discards pending events.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	clear(d.pending)
}

// drainLocked empties the pending set into events sorted by path.
func (d *Debouncer) drainLocked() []ports.WatchEvent {
	events := make([]ports.WatchEvent, 0, len(d.pending))
	for handle, op := range d.pending {
		events = append(events, ports.WatchEvent{Path: handle.Value(), Operation: op})
	}
	clear(d.pending)

	slices.SortFunc(events, func(a, b ports.WatchEvent) int {
		return strings.Compare(a.Path, b.Path)
	})
	return events
}
