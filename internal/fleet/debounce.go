package fleet

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid events like per-keystroke filter input.
type Debouncer struct {
	mu       sync.Mutex
	timer    *time.Timer
	duration time.Duration
}

// NewDebouncer creates a new debouncer with the specified duration.
func NewDebouncer(duration time.Duration) *Debouncer {
	return &Debouncer{
		duration: duration,
	}
}

// Debounce executes the function after the debounce duration has elapsed
// without any new calls. Rapid successive calls reset the timer.
func (d *Debouncer) Debounce(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.duration, fn)
}

// Cancel cancels any pending debounced function call.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Immediate executes the function immediately and cancels any pending call.
func (d *Debouncer) Immediate(fn func()) {
	d.Cancel()
	fn()
}

// DefaultFilterDebounce is the recommended delay for filter input.
// Data changes (fleet replace, risk arrival) bypass the debouncer entirely.
const DefaultFilterDebounce = 300 * time.Millisecond
