// Package idle runs garbage collection on a database once it has been quiet
// for a while.
package idle

import (
	"sync"
	"time"

	"go.trai.ch/pico/internal/engine/memo"
)

// Collectable is the part of a database the collector drives.
type Collectable interface {
	RunGarbageCollection() memo.GCStats
}

// Collector sweeps its database after interval passes with no activity. A
// sweep happens at most once per quiet period.
type Collector struct {
	// sweeping is held for the length of a sweep.
	sweeping     sync.Mutex
	mu           sync.Mutex
	db           Collectable
	timer        *time.Timer
	interval     time.Duration
	lastActivity time.Time
	runs         int
	stopped      bool
	observe      func(memo.GCStats)
}

// NewCollector arms a collector. observe is called after every sweep and may
// be nil.
func NewCollector(db Collectable, interval time.Duration, observe func(memo.GCStats)) *Collector {
	c := &Collector{
		db:           db,
		interval:     interval,
		lastActivity: time.Now(),
		observe:      observe,
	}
	c.timer = time.AfterFunc(interval, c.sweep)
	return c
}

// Touch marks activity and restarts the quiet period.
func (c *Collector) Touch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.lastActivity = time.Now()
	c.timer.Reset(c.interval)
}

// IdleRemaining returns the time left until the next sweep.
func (c *Collector) IdleRemaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	remaining := c.interval - time.Since(c.lastActivity)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Runs returns how many sweeps have completed.
func (c *Collector) Runs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs
}

// Stop disarms the collector and waits for a running sweep to finish. The
// database may be closed once Stop returns.
func (c *Collector) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.timer.Stop()
	c.mu.Unlock()

	c.sweeping.Lock()
	defer c.sweeping.Unlock()
}

func (c *Collector) sweep() {
	c.sweeping.Lock()
	defer c.sweeping.Unlock()

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	stats := c.db.RunGarbageCollection()

	c.mu.Lock()
	c.runs++
	observe := c.observe
	c.mu.Unlock()

	if observe != nil {
		observe(stats)
	}
}
