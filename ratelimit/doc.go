// Package ratelimit shares an upstream request budget across coordinators.
//
// Every coordinator replica browses the same task marketplace. When the
// marketplace pushes back (429 or an outage), one replica slowing down
// is not enough. This package provides token bucket limiters in two
// flavors: process-local and bus-coordinated.
//
// # Local rate limiting
//
//	limiter := ratelimit.NewMemoryLimiter()
//	limiter.SetCapacity(ratelimit.ResourceMarketplace, 30, time.Minute)
//
//	// Block until a token is available
//	if err := limiter.Acquire(ctx, ratelimit.ResourceMarketplace); err != nil {
//	    return err // context cancelled
//	}
//	defer limiter.Release(ratelimit.ResourceMarketplace)
//
//	// Non-blocking attempt
//	if limiter.TryAcquire(ratelimit.ResourceMarketplace) {
//	    defer limiter.Release(ratelimit.ResourceMarketplace)
//	    // browse
//	}
//
// # Shared rate limiting
//
// The SharedLimiter coordinates cuts across replicas via the bus:
//
//	limiter, err := ratelimit.NewSharedLimiter(ratelimit.SharedConfig{
//	    Bus:    b,
//	    Origin: "coordinator-1",
//	})
//	limiter.SetCapacity(ratelimit.ResourceMarketplace, 30, time.Minute)
//
//	// After a 429 from the marketplace
//	limiter.AnnounceReduced(ratelimit.ResourceMarketplace, "marketplace returned 429")
//
// Every replica that hears the announcement applies the cut locally.
// Capacity then recovers gradually toward the original, one
// RecoveryFactor step per RecoveryInterval.
//
// # Algorithm
//
// Both implementations use token buckets with time-based refill:
//   - Tokens are added at capacity/window
//   - Each Acquire consumes one token
//   - With no tokens, Acquire blocks and TryAcquire returns false
//   - Release returns a token immediately (optional, for request tracking)
package ratelimit
