package watch

import (
	"sync"
	"time"
)

// coalescer collapses bursts of triggers into a single call to fire once no
// new trigger has arrived for the quiescence window.
type coalescer struct {
	mu      sync.Mutex
	window  time.Duration
	timer   *time.Timer
	pending int
	stopped bool
	fire    func(count int)
}

func newCoalescer(window time.Duration, fire func(count int)) *coalescer {
	return &coalescer{window: window, fire: fire}
}

// trigger records a raw change and (re)arms the quiescence timer.
func (c *coalescer) trigger() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}
	c.pending++
	if c.timer == nil {
		c.timer = time.AfterFunc(c.window, c.flush)
		return
	}
	c.timer.Reset(c.window)
}

func (c *coalescer) flush() {
	c.mu.Lock()
	if c.stopped || c.pending == 0 {
		c.mu.Unlock()
		return
	}
	n := c.pending
	c.pending = 0
	c.mu.Unlock()

	c.fire(n)
}

// stop discards pending triggers; no fire happens after stop returns unless
// one was already in progress.
func (c *coalescer) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopped = true
	c.pending = 0
	if c.timer != nil {
		c.timer.Stop()
	}
}
