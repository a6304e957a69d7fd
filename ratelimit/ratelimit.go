package ratelimit

import (
	"context"
	"errors"
	"time"
)

// Common errors.
var (
	ErrClosed          = errors.New("limiter closed")
	ErrResourceUnknown = errors.New("unknown resource")
	ErrInvalidConfig   = errors.New("invalid limiter configuration")
)

// CapacitySubject is the bus subject for capacity updates.
const CapacitySubject = "swarm.ratelimit.capacity"

// ResourceMarketplace is the shared browse budget against the
// task marketplace. Every coordinator replica draws from it.
const ResourceMarketplace = "marketplace"

// RateLimiter coordinates rate limits for shared upstream resources.
type RateLimiter interface {
	// Acquire blocks until a token is available for the resource.
	// Returns context.Canceled or context.DeadlineExceeded if context ends.
	// Returns ErrResourceUnknown if the resource has no configured capacity.
	Acquire(ctx context.Context, resource string) error

	// TryAcquire attempts to acquire a token without blocking.
	TryAcquire(resource string) bool

	// Release returns a token to the resource bucket.
	// Optional; useful for tracking in-flight requests.
	Release(resource string)

	// SetCapacity configures the rate limit for a resource.
	// capacity is the number of tokens per window.
	SetCapacity(resource string, capacity int, window time.Duration)

	// AnnounceReduced cuts local capacity and, for shared limiters,
	// broadcasts the cut so other coordinators back off too.
	// reason describes why, e.g. "marketplace returned 429".
	AnnounceReduced(resource string, reason string)

	// GetCapacity returns the current capacity info for a resource.
	// Returns nil if the resource is unknown.
	GetCapacity(resource string) *Capacity

	// Close shuts down the limiter and releases resources.
	Close() error
}

// Capacity describes the rate limit state for a resource.
type Capacity struct {
	// Resource is the unique identifier for the rate-limited resource.
	Resource string

	// Available is the current number of available tokens.
	Available int

	// Total is the maximum capacity (tokens per window).
	Total int

	// Window is the refill period.
	Window time.Duration

	// InFlight tracks requests currently in progress (if Release is used).
	InFlight int
}

// CapacityUpdate is broadcast when a coordinator cuts capacity.
type CapacityUpdate struct {
	// Resource that changed.
	Resource string `json:"resource"`

	// Origin is the coordinator identity that sent the update.
	Origin string `json:"origin"`

	// NewCapacity is the suggested new total capacity.
	NewCapacity int `json:"new_capacity"`

	// Reason for the change.
	Reason string `json:"reason"`

	// Timestamp of the update.
	Timestamp time.Time `json:"timestamp"`
}

// OnCapacityChange is a callback for capacity change notifications.
type OnCapacityChange func(update *CapacityUpdate)
