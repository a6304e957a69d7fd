package errors

import "sync"

// defaultCollectorLimit bounds a collector that was created with no
// explicit limit.
const defaultCollectorLimit = 100

// Collector accumulates non-fatal errors for one unit of work, such as
// a coordination cycle. Subsystems add errors instead of failing the
// whole cycle; the caller inspects the collection afterward. Safe for
// concurrent use.
type Collector struct {
	mu      sync.Mutex
	errs    []*Error
	dropped int
	limit   int
}

// NewCollector creates a collector keeping at most limit errors.
// A non-positive limit selects the default.
func NewCollector(limit int) *Collector {
	if limit <= 0 {
		limit = defaultCollectorLimit
	}
	return &Collector{limit: limit}
}

// Add records an error. Nil errors are ignored. Errors beyond the
// limit are counted but not retained.
func (c *Collector) Add(err *Error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.errs) >= c.limit {
		c.dropped++
		return
	}
	c.errs = append(c.errs, err)
}

// Collect wraps a plain error and records it.
func (c *Collector) Collect(err error, message string, opts ...Option) {
	if err == nil {
		return
	}
	c.Add(Wrap(err, message, opts...))
}

// Errors returns a copy of the retained errors in arrival order.
func (c *Collector) Errors() []*Error {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*Error, len(c.errs))
	copy(out, c.errs)
	return out
}

// Len returns the number of recorded errors, including dropped ones.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errs) + c.dropped
}

// Dropped returns how many errors exceeded the retention limit.
func (c *Collector) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// ByCategory returns error counts per category.
func (c *Collector) ByCategory() map[ErrorCategory]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	counts := make(map[ErrorCategory]int)
	for _, e := range c.errs {
		counts[e.Category()]++
	}
	return counts
}

// Reset clears the collector for reuse.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = nil
	c.dropped = 0
}
