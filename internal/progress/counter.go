package progress

import (
	"sync"
	"time"
)

// Counter reports periodic progress of a value against a (possibly
// growing) total, ticking report at interval until Done is called, which
// always triggers one final call with final=true. Reconstructed from the
// contract asserted by the teacher's own counter_test.go (NewCounter,
// Add, SetMax, Done; a nil *Counter must not panic).
type Counter struct {
	mu       sync.Mutex
	value    uint64
	total    uint64
	report   func(value, total uint64, d time.Duration, final bool)
	start    time.Time
	done     chan struct{}
	doneOnce sync.Once
}

func NewCounter(interval time.Duration, total uint64, report func(value, total uint64, d time.Duration, final bool)) *Counter {
	c := &Counter{
		total:  total,
		report: report,
		start:  time.Now(),
		done:   make(chan struct{}),
	}

	if interval <= 0 {
		return c
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.tick(false)
			case <-c.done:
				return
			}
		}
	}()

	return c
}

func (c *Counter) tick(final bool) {
	c.mu.Lock()
	v, t := c.value, c.total
	d := time.Since(c.start)
	c.mu.Unlock()
	c.report(v, t, d, final)
}

// Add increases the current value by delta. Safe on a nil Counter.
func (c *Counter) Add(delta uint64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.value += delta
	c.mu.Unlock()
}

// SetMax updates the total. Safe on a nil Counter.
func (c *Counter) SetMax(total uint64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.total = total
	c.mu.Unlock()
}

// Done stops the ticker and reports one final update. Safe to call more
// than once, and on a nil Counter.
func (c *Counter) Done() {
	if c == nil {
		return
	}
	c.doneOnce.Do(func() {
		close(c.done)
		c.tick(true)
	})
}

// Updater is Counter without a value/total, just periodic elapsed-time
// reporting — used for long operations with no countable progress (e.g. a
// remote command with no byte count).
type Updater struct {
	report   func(d time.Duration, final bool)
	start    time.Time
	done     chan struct{}
	doneOnce sync.Once
}

func NewUpdater(interval time.Duration, report func(d time.Duration, final bool)) *Updater {
	u := &Updater{report: report, start: time.Now(), done: make(chan struct{})}

	if interval <= 0 {
		return u
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				u.report(time.Since(u.start), false)
			case <-u.done:
				return
			}
		}
	}()

	return u
}

func (u *Updater) Done() {
	if u == nil {
		return
	}
	u.doneOnce.Do(func() {
		close(u.done)
		u.report(time.Since(u.start), true)
	})
}
