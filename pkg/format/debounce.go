package format

import (
	"sync"
	"time"
)

// Debouncer collapses calls arriving within delay of each other into one
// trailing call carrying the most recent argument.
type Debouncer[T any] struct {
	fn    func(T)
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

func Debounce[T any](fn func(T), delay time.Duration) *Debouncer[T] {
	return &Debouncer[T]{fn: fn, delay: delay}
}

// Call schedules fn(arg), replacing any call still pending.
func (d *Debouncer[T]) Call(arg T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fn(arg) })
}

// Stop cancels the pending call, if any. It reports whether a call was
// cancelled.
func (d *Debouncer[T]) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer == nil {
		return false
	}
	stopped := d.timer.Stop()
	d.timer = nil
	return stopped
}
