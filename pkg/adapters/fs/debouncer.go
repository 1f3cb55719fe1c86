package fs

import (
	"sync"
	"time"

	"github.com/aretw0/notepad/pkg/core"
)

// debouncer coalesces bursts of events per namespace: only the last event
// of a burst is delivered, once the burst has been quiet for delay.
type debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
	wg      sync.WaitGroup
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:  delay,
		timers: make(map[string]*time.Timer),
	}
}

// add schedules fn(e), replacing any pending delivery for the same namespace.
func (d *debouncer) add(e core.Event, fn func(core.Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	key := e.Namespace
	if t, ok := d.timers[key]; ok && t.Stop() {
		// The pending delivery will never run.
		d.wg.Done()
	}

	d.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()

		d.mu.Lock()
		if d.timers[key] == timer {
			delete(d.timers, key)
		}
		d.mu.Unlock()

		fn(e)
	})
	d.timers[key] = timer
}

// stopAndWait cancels pending deliveries, refuses new ones, and waits up to
// timeout for deliveries already running.
func (d *debouncer) stopAndWait(timeout time.Duration) {
	d.mu.Lock()
	d.stopped = true
	for key, t := range d.timers {
		if t.Stop() {
			d.wg.Done()
		}
		delete(d.timers, key)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
	}
}
