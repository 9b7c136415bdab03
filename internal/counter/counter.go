// Package counter holds the single piece of state this daemon exists to
// maintain: one signed integer, shared by the ticker and by every live
// connection. Connections are handled on their own goroutines, so access
// is serialized by a mutex; each operation is atomic with respect to the
// others.
package counter

import "sync"

// Counter is the shared counter value.
type Counter struct {
	mu    sync.Mutex
	value int64
}

// New creates a counter starting at seed. The seed is usually zero, or the
// value retrieved from a predecessor process during a hand-off.
func New(seed int64) *Counter {
	return &Counter{value: seed}
}

// Get returns the current value.
func (c *Counter) Get() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set overwrites the current value.
func (c *Counter) Set(v int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
}

// Swap overwrites the current value and returns the previous one. The
// set_counter command uses this so the old value reported to the client is
// exactly the value that was replaced.
func (c *Counter) Swap(v int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	old := c.value
	c.value = v
	return old
}

// Increment adds one and returns the post-increment value.
func (c *Counter) Increment() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value++
	return c.value
}
