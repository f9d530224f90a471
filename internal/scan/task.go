// Package scan runs long graph searches as resumable tasks that advance a
// bounded amount of work per host tick.
package scan

// Task is a resumable unit of work. Step processes at most batch items and
// reports whether the task has finished. A cancelled task reports done on its
// next Step without doing any work.
type Task interface {
	Step(batch int) (done bool)
	Cancel()
}

// Cursor walks a slice in batches, calling visit for each item until visit
// returns true (stop) or the slice is exhausted.
type Cursor[T any] struct {
	items     []T
	pos       int
	visit     func(T) (stop bool)
	stopped   bool
	cancelled bool
}

// NewCursor creates a cursor over items. The slice is not copied.
func NewCursor[T any](items []T, visit func(T) (stop bool)) *Cursor[T] {
	return &Cursor[T]{items: items, visit: visit}
}

// Step implements Task.
func (c *Cursor[T]) Step(batch int) bool {
	if c.cancelled || c.stopped {
		return true
	}
	batch = max(batch, 1)
	for n := 0; n < batch && c.pos < len(c.items); n++ {
		item := c.items[c.pos]
		c.pos++
		if c.visit(item) {
			c.stopped = true
			return true
		}
	}
	return c.pos >= len(c.items)
}

// Cancel implements Task.
func (c *Cursor[T]) Cancel() {
	c.cancelled = true
}

// Cancelled reports whether Cancel was called.
func (c *Cursor[T]) Cancelled() bool {
	return c.cancelled
}

// Progress returns the number of visited items and the total.
func (c *Cursor[T]) Progress() (visited, total int) {
	return c.pos, len(c.items)
}
