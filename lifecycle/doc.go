// Package lifecycle manages the complete lifecycle of workers in the swarm.
//
// It provides the decision layer that tells the runner what to do with each
// worker and never executes work itself. Key features:
//
//   - State machine: OFFLINE → STARTING → IDLE → WORKING → STOPPING → OFFLINE
//   - Circuit breaker: consecutive failures trigger cooldown periods
//   - Heartbeat tracking: detect stale and dead workers
//   - Recovery: exponential backoff with jitter for failing workers
//   - Startup ordering: system workers first, then user workers in batches
//   - Health assessment: fleet-wide counts, ratios and recommended actions
//
// # State Transitions
//
// Transitions are defined by an explicit table keyed by (state, reason).
// Any pair absent from the table is invalid and leaves the record untouched:
//
//	rec := lifecycle.NewWorkerRecord("worker-1", lifecycle.TierUser)
//	ev, err := lifecycle.Transition(rec, lifecycle.ReasonStartup, cfg, time.Now(), nil)
//	if errors.Is(err, lifecycle.ErrInvalidTransition) {
//	    // rec is unchanged
//	}
//
// # Ownership
//
// A WorkerRecord is exclusively owned by its Roster and mutated only through
// Roster methods, which serialize writers per worker. The pure functions
// (Transition, CheckHeartbeat, ComputeCooldown, ...) are exported for direct
// use when the caller guarantees single-threaded ownership.
package lifecycle
