// Package errors provides a structured error taxonomy for swarm
// coordination in swarmd. It defines error codes and categories that
// give cycle-level error handling consistent retry semantics, plus a
// Collector that turns catch-and-continue into an explicit non-fatal
// error channel per subsystem.
//
// # Error Categories
//
// Errors are classified into four categories:
//
//   - Transient: Temporary failures where retry may succeed (network issues, etc.)
//   - Permanent: Failures where retry will not help (invalid input, not found, etc.)
//   - Resource: Resource exhaustion issues (rate limits, capacity, etc.)
//   - Internal: Unexpected errors indicating bugs or corrupted state
//
// # Error Codes
//
// Each error has a specific code identifying the failure type:
//
//   - CLAIM_FAILED: Claim write failed (a lost claim race is not an error)
//   - NOTIFY_FAILED: Assignment notification failed after a standing claim
//   - MARKETPLACE: Candidate feed failure
//   - WORKER_STALE: Worker heartbeat too old
//   - TIMEOUT, RATE_LIMITED, NOT_FOUND, and more
//
// # Usage
//
// Create a new error:
//
//	err := errors.ClaimFailed(taskID, cause)
//
// Wrap an existing error with context:
//
//	wrapped := errors.Wrap(err, "reading worker states")
//
// Check if an error is retryable:
//
//	if errors.IsRetryable(err) {
//	    // retry next cycle
//	}
//
// # Cycle-level aggregation
//
// A coordination cycle keeps going past per-candidate failures. The
// Collector records them so the cycle result can report what went
// wrong without aborting:
//
//	faults := errors.NewCollector(0)
//	faults.Add(errors.NotifyFailed(worker, taskID, err))
//	result.Faults = faults.Errors()
//
// # JSON Serialization
//
// Errors marshal to JSON for cycle results and telemetry events, and
// unmarshal back with code, category, and retryability intact.
package errors
