package lifecycle

import (
	"errors"
	"time"
)

// Common errors.
var (
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrUnknownWorker     = errors.New("unknown worker")
	ErrDuplicateWorker   = errors.New("duplicate worker name")
)

// State is a worker lifecycle state.
type State string

const (
	// StateOffline means the worker is not running and not scheduled.
	StateOffline State = "offline"

	// StateStarting means initialization is in progress.
	StateStarting State = "starting"

	// StateIdle means the worker is running and waiting for assignment.
	StateIdle State = "idle"

	// StateWorking means the worker is executing an assigned task.
	StateWorking State = "working"

	// StateStopping means a graceful shutdown is in progress.
	StateStopping State = "stopping"

	// StateCooldown means the circuit breaker tripped and the worker waits.
	StateCooldown State = "cooldown"

	// StateError means a fatal error occurred; manual intervention needed.
	StateError State = "error"

	// StateDraining means the worker finishes its current task, then stops.
	StateDraining State = "draining"
)

// Valid returns true if the state is a known value.
func (s State) Valid() bool {
	switch s {
	case StateOffline, StateStarting, StateIdle, StateWorking,
		StateStopping, StateCooldown, StateError, StateDraining:
		return true
	default:
		return false
	}
}

// Online returns true for states that count toward fleet availability.
func (s State) Online() bool {
	return s == StateIdle || s == StateWorking
}

// Tier classifies workers for startup ordering.
type Tier string

const (
	// TierSystem workers (coordinator, validators) start first.
	TierSystem Tier = "system"

	// TierCore workers (extractors, bridges) start second.
	TierCore Tier = "core"

	// TierUser workers are regular task workers; they start last, in batches.
	TierUser Tier = "user"
)

// Reason describes why a state transition occurred.
type Reason string

const (
	ReasonStartup          Reason = "startup"
	ReasonTaskAssigned     Reason = "task_assigned"
	ReasonTaskCompleted    Reason = "task_completed"
	ReasonTaskFailed       Reason = "task_failed"
	ReasonHeartbeatTimeout Reason = "heartbeat_timeout"
	ReasonCircuitBreaker   Reason = "circuit_breaker"
	ReasonCooldownExpired  Reason = "cooldown_expired"
	ReasonManualStop       Reason = "manual_stop"
	ReasonManualStart      Reason = "manual_start"
	ReasonDrainComplete    Reason = "drain_complete"
	ReasonFatalError       Reason = "fatal_error"
	ReasonBalanceLow       Reason = "balance_low"
	ReasonRecovery         Reason = "recovery"
)

// historyLimit bounds the per-worker transition history.
const historyLimit = 20

// Config holds the tunables for lifecycle management.
type Config struct {
	// Circuit breaker.
	BreakerThreshold int `json:"breaker_threshold" toml:"breaker_threshold"`

	// Cooldown (exponential backoff).
	CooldownBase       time.Duration `json:"cooldown_base" toml:"cooldown_base"`
	CooldownMax        time.Duration `json:"cooldown_max" toml:"cooldown_max"`
	CooldownMultiplier float64       `json:"cooldown_multiplier" toml:"cooldown_multiplier"`
	CooldownJitter     float64       `json:"cooldown_jitter" toml:"cooldown_jitter"`

	// Heartbeat thresholds.
	HeartbeatInterval time.Duration `json:"heartbeat_interval" toml:"heartbeat_interval"`
	StaleThreshold    time.Duration `json:"stale_threshold" toml:"stale_threshold"`
	DeadThreshold     time.Duration `json:"dead_threshold" toml:"dead_threshold"`

	// Minimum resource balances to stay eligible.
	MinCreditBalance float64 `json:"min_credit_balance" toml:"min_credit_balance"`
	MinGasBalance    float64 `json:"min_gas_balance" toml:"min_gas_balance"`

	// Startup batching.
	StartupBatchSize  int           `json:"startup_batch_size" toml:"startup_batch_size"`
	StartupBatchDelay time.Duration `json:"startup_batch_delay" toml:"startup_batch_delay"`

	// Task execution limits.
	TaskTimeout  time.Duration `json:"task_timeout" toml:"task_timeout"`
	DrainTimeout time.Duration `json:"drain_timeout" toml:"drain_timeout"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BreakerThreshold:   3,
		CooldownBase:       60 * time.Second,
		CooldownMax:        time.Hour,
		CooldownMultiplier: 2.0,
		CooldownJitter:     0.2,
		HeartbeatInterval:  5 * time.Minute,
		StaleThreshold:     10 * time.Minute,
		DeadThreshold:      30 * time.Minute,
		MinCreditBalance:   0.01,
		MinGasBalance:      0.0001,
		StartupBatchSize:   5,
		StartupBatchDelay:  10 * time.Second,
		TaskTimeout:        time.Hour,
		DrainTimeout:       5 * time.Minute,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.BreakerThreshold <= 0 {
		return errors.New("breaker threshold must be positive")
	}
	if c.CooldownBase <= 0 || c.CooldownMax < c.CooldownBase {
		return errors.New("cooldown base/max out of range")
	}
	if c.CooldownMultiplier < 1 {
		return errors.New("cooldown multiplier must be >= 1")
	}
	if c.CooldownJitter < 0 || c.CooldownJitter > 1 {
		return errors.New("cooldown jitter must be in [0,1]")
	}
	if c.StartupBatchSize <= 0 {
		return errors.New("startup batch size must be positive")
	}
	return nil
}

// WorkerRecord is the complete lifecycle state of one worker. It is owned by
// its Roster and mutated only via Transition and the Record* setters.
type WorkerRecord struct {
	Name  string `json:"name"`
	Tier  Tier   `json:"tier"`
	State State  `json:"state"`

	// Timing.
	StateEnteredAt    time.Time `json:"state_entered_at"`
	LastHeartbeat     time.Time `json:"last_heartbeat"`
	LastTaskCompleted time.Time `json:"last_task_completed"`

	// Current task.
	CurrentTaskID      string    `json:"current_task_id"`
	CurrentTaskStarted time.Time `json:"current_task_started"`

	// Circuit breaker counters.
	ConsecutiveFailures int       `json:"consecutive_failures"`
	TotalFailures       int       `json:"total_failures"`
	TotalSuccesses      int       `json:"total_successes"`
	BreakerTrips        int       `json:"breaker_trips"`
	CooldownUntil       time.Time `json:"cooldown_until"`

	// Resource balances.
	CreditBalance float64 `json:"credit_balance"`
	GasBalance    float64 `json:"gas_balance"`

	// Bounded transition history, oldest first.
	History []TransitionEvent `json:"history,omitempty"`
}

// NewWorkerRecord creates a record in OFFLINE state.
func NewWorkerRecord(name string, tier Tier) *WorkerRecord {
	if tier == "" {
		tier = TierUser
	}
	return &WorkerRecord{
		Name:  name,
		Tier:  tier,
		State: StateOffline,
	}
}

// Clone creates a deep copy of the record.
func (w *WorkerRecord) Clone() *WorkerRecord {
	clone := *w
	if w.History != nil {
		clone.History = make([]TransitionEvent, len(w.History))
		copy(clone.History, w.History)
	}
	return &clone
}

// TransitionEvent is an immutable record of one state change. It is created
// only as a side effect of a successful transition.
type TransitionEvent struct {
	Worker    string            `json:"worker"`
	From      State             `json:"from"`
	To        State             `json:"to"`
	Reason    Reason            `json:"reason"`
	Timestamp time.Time         `json:"timestamp"`
	Details   map[string]string `json:"details,omitempty"`
}
