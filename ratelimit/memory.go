package ratelimit

import (
	"context"
	"sync"
	"time"
)

// bucket implements a token bucket.
type bucket struct {
	capacity   int
	available  int
	window     time.Duration
	lastRefill time.Time
	inFlight   int
	cond       *sync.Cond
}

// refill adds tokens based on elapsed time since last refill.
func (b *bucket) refill(now time.Time) {
	if b.window == 0 || b.capacity == 0 {
		return
	}

	elapsed := now.Sub(b.lastRefill)
	if elapsed <= 0 {
		return
	}

	// rate = capacity / window
	add := int(float64(b.capacity) * float64(elapsed) / float64(b.window))
	if add > 0 {
		b.available += add
		if b.available > b.capacity {
			b.available = b.capacity
		}
		b.lastRefill = now
	}
}

// MemoryLimiter provides process-local rate limiting using token buckets.
// It is safe for concurrent use.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	closed  bool
	nowFunc func() time.Time
}

// NewMemoryLimiter creates a new in-memory rate limiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		buckets: make(map[string]*bucket),
		nowFunc: time.Now,
	}
}

// SetCapacity configures the rate limit for a resource.
// A non-positive capacity or window removes the resource.
func (m *MemoryLimiter) SetCapacity(resource string, capacity int, window time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	if capacity <= 0 || window <= 0 {
		delete(m.buckets, resource)
		return
	}

	if b, exists := m.buckets[resource]; exists {
		b.capacity = capacity
		b.window = window
		if b.available > capacity {
			b.available = capacity
		}
		if b.cond != nil {
			b.cond.Broadcast()
		}
		return
	}

	// New buckets start full.
	m.buckets[resource] = &bucket{
		capacity:   capacity,
		available:  capacity,
		window:     window,
		lastRefill: m.nowFunc(),
	}
}

// GetCapacity returns the current capacity info for a resource.
func (m *MemoryLimiter) GetCapacity(resource string) *Capacity {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, exists := m.buckets[resource]
	if !exists {
		return nil
	}

	b.refill(m.nowFunc())

	return &Capacity{
		Resource:  resource,
		Available: b.available,
		Total:     b.capacity,
		Window:    b.window,
		InFlight:  b.inFlight,
	}
}

// Acquire blocks until a token is available for the resource.
func (m *MemoryLimiter) Acquire(ctx context.Context, resource string) error {
	if m.TryAcquire(resource) {
		return nil
	}

	// Wake the waiter on context cancellation and periodically so
	// time-based refills are noticed without a releaser.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
			case <-ticker.C:
			}
			m.mu.Lock()
			if b, exists := m.buckets[resource]; exists && b.cond != nil {
				b.cond.Broadcast()
			}
			m.mu.Unlock()
			if ctx.Err() != nil {
				return
			}
		}
	}()

	m.mu.Lock()
	defer m.mu.Unlock()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if m.closed {
			return ErrClosed
		}

		b, exists := m.buckets[resource]
		if !exists {
			return ErrResourceUnknown
		}
		if b.cond == nil {
			b.cond = sync.NewCond(&m.mu)
		}

		b.refill(m.nowFunc())
		if b.available > 0 {
			b.available--
			b.inFlight++
			return nil
		}

		b.cond.Wait()
	}
}

// TryAcquire attempts to acquire a token without blocking.
func (m *MemoryLimiter) TryAcquire(resource string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}

	b, exists := m.buckets[resource]
	if !exists {
		return false
	}

	b.refill(m.nowFunc())

	if b.available > 0 {
		b.available--
		b.inFlight++
		return true
	}
	return false
}

// Release returns a token to the resource bucket, allowing immediate
// reuse without waiting for a time-based refill.
func (m *MemoryLimiter) Release(resource string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	b, exists := m.buckets[resource]
	if !exists {
		return
	}

	if b.inFlight > 0 {
		b.inFlight--
	}
	if b.available < b.capacity {
		b.available++
	}
	if b.cond != nil {
		b.cond.Signal()
	}
}

// AnnounceReduced cuts local capacity by a quarter. The memory limiter
// has nobody to broadcast to.
func (m *MemoryLimiter) AnnounceReduced(resource string, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, exists := m.buckets[resource]
	if !exists {
		return
	}

	newCapacity := int(float64(b.capacity) * 0.75)
	if newCapacity < 1 {
		newCapacity = 1
	}
	b.capacity = newCapacity
	if b.available > newCapacity {
		b.available = newCapacity
	}
}

// Close shuts down the limiter.
func (m *MemoryLimiter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.closed = true

	for _, b := range m.buckets {
		if b.cond != nil {
			b.cond.Broadcast()
		}
	}
	return nil
}

// Ensure MemoryLimiter implements RateLimiter.
var _ RateLimiter = (*MemoryLimiter)(nil)
