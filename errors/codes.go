package errors

// ErrorCategory classifies errors by their nature and retry semantics.
type ErrorCategory string

// Error categories define how errors should be handled.
const (
	// CategoryTransient indicates temporary failures where retry may succeed.
	// Examples: marketplace timeouts, a briefly unreachable state store.
	CategoryTransient ErrorCategory = "transient"

	// CategoryPermanent indicates failures where retry will not help.
	// Examples: invalid input, unknown worker, malformed snapshot.
	CategoryPermanent ErrorCategory = "permanent"

	// CategoryResource indicates exhaustion or quota issues.
	// Examples: browse budget exhausted, store at capacity.
	CategoryResource ErrorCategory = "resource"

	// CategoryInternal indicates unexpected errors or corrupted state.
	CategoryInternal ErrorCategory = "internal"
)

// String returns the string representation of the category.
func (c ErrorCategory) String() string {
	return string(c)
}

// IsRetryable returns true if errors in this category may succeed on retry.
func (c ErrorCategory) IsRetryable() bool {
	switch c {
	case CategoryTransient, CategoryResource:
		return true
	default:
		return false
	}
}

// ErrorCode identifies specific failure types within categories.
type ErrorCode string

// Error codes for swarm coordination failures.
const (
	// Transient errors
	ErrCodeTimeout     ErrorCode = "TIMEOUT"     // Operation timed out
	ErrCodeUnavailable ErrorCode = "UNAVAILABLE" // Backend temporarily unavailable
	ErrCodeNetworkErr  ErrorCode = "NETWORK_ERR" // Network connectivity issue

	// Permanent errors
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"      // Resource does not exist
	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"  // Malformed or invalid input
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS" // Key already present
	ErrCodeCanceled      ErrorCode = "CANCELED"       // Operation was canceled

	// Resource errors
	ErrCodeRateLimit ErrorCode = "RATE_LIMITED" // Browse budget exhausted
	ErrCodeCapacity  ErrorCode = "CAPACITY"     // Store or bus at capacity

	// Internal errors
	ErrCodeInternal   ErrorCode = "INTERNAL"   // Unexpected internal error
	ErrCodeCorruption ErrorCode = "CORRUPTION" // Persisted data unreadable

	// Swarm-specific errors
	ErrCodeWorkerStale  ErrorCode = "WORKER_STALE"  // Worker heartbeat too old
	ErrCodeClaimFailed  ErrorCode = "CLAIM_FAILED"  // Claim write failed (not a conflict)
	ErrCodeNotifyFailed ErrorCode = "NOTIFY_FAILED" // Assignment notification failed
	ErrCodeMarketplace  ErrorCode = "MARKETPLACE"   // Candidate feed failure
	ErrCodeCoordination ErrorCode = "COORDINATION"  // Coordination cycle failure
	ErrCodeSnapshot     ErrorCode = "SNAPSHOT"      // Snapshot save/load failure
)

// String returns the string representation of the error code.
func (c ErrorCode) String() string {
	return string(c)
}

// DefaultCategory returns the default category for an error code.
func (c ErrorCode) DefaultCategory() ErrorCategory {
	switch c {
	case ErrCodeTimeout, ErrCodeUnavailable, ErrCodeNetworkErr:
		return CategoryTransient

	case ErrCodeNotFound, ErrCodeInvalidInput, ErrCodeAlreadyExists, ErrCodeCanceled:
		return CategoryPermanent

	case ErrCodeRateLimit, ErrCodeCapacity:
		return CategoryResource

	case ErrCodeInternal, ErrCodeCorruption:
		return CategoryInternal

	case ErrCodeWorkerStale, ErrCodeClaimFailed, ErrCodeNotifyFailed,
		ErrCodeMarketplace, ErrCodeCoordination:
		return CategoryTransient
	case ErrCodeSnapshot:
		return CategoryInternal

	default:
		return CategoryInternal
	}
}

// DefaultRetryable returns whether this error code is typically retryable.
func (c ErrorCode) DefaultRetryable() bool {
	return c.DefaultCategory().IsRetryable()
}

// codeDescriptions provides human-readable descriptions for error codes.
var codeDescriptions = map[ErrorCode]string{
	ErrCodeTimeout:       "operation timed out",
	ErrCodeUnavailable:   "backend temporarily unavailable",
	ErrCodeNetworkErr:    "network connectivity error",
	ErrCodeNotFound:      "resource not found",
	ErrCodeInvalidInput:  "invalid input provided",
	ErrCodeAlreadyExists: "resource already exists",
	ErrCodeCanceled:      "operation canceled",
	ErrCodeRateLimit:     "rate limit exceeded",
	ErrCodeCapacity:      "system at capacity",
	ErrCodeInternal:      "internal error",
	ErrCodeCorruption:    "data corruption detected",
	ErrCodeWorkerStale:   "worker heartbeat is stale",
	ErrCodeClaimFailed:   "task claim failed",
	ErrCodeNotifyFailed:  "assignment notification failed",
	ErrCodeMarketplace:   "marketplace feed failure",
	ErrCodeCoordination:  "coordination failure",
	ErrCodeSnapshot:      "snapshot persistence failure",
}

// Description returns a human-readable description for the error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}
