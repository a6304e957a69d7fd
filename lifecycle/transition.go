package lifecycle

import "time"

// transitionKey identifies one row of the transition table.
type transitionKey struct {
	from   State
	reason Reason
}

// validTransitions maps (current state, reason) to the next state. Any pair
// absent from the table is an invalid transition.
var validTransitions = map[transitionKey]State{
	// Startup flow.
	{StateOffline, ReasonStartup}:     StateStarting,
	{StateOffline, ReasonManualStart}: StateStarting,
	{StateStarting, ReasonStartup}:    StateIdle,

	// Task lifecycle.
	{StateIdle, ReasonTaskAssigned}:     StateWorking,
	{StateWorking, ReasonTaskCompleted}: StateIdle,
	{StateWorking, ReasonTaskFailed}:    StateIdle,

	// Circuit breaker.
	{StateIdle, ReasonCircuitBreaker}:      StateCooldown,
	{StateWorking, ReasonCircuitBreaker}:   StateCooldown,
	{StateCooldown, ReasonCooldownExpired}: StateIdle,

	// Shutdown.
	{StateIdle, ReasonManualStop}:          StateStopping,
	{StateWorking, ReasonManualStop}:       StateDraining,
	{StateDraining, ReasonDrainComplete}:   StateStopping,
	{StateDraining, ReasonTaskCompleted}:   StateStopping,
	{StateDraining, ReasonTaskFailed}:      StateStopping,
	{StateStopping, ReasonManualStop}:      StateOffline,
	{StateCooldown, ReasonManualStop}:      StateStopping,

	// Error and recovery.
	{StateIdle, ReasonFatalError}:     StateError,
	{StateWorking, ReasonFatalError}:  StateError,
	{StateStarting, ReasonFatalError}: StateError,
	{StateError, ReasonRecovery}:      StateStarting,
	{StateError, ReasonManualStart}:   StateStarting,

	// Heartbeat timeout.
	{StateIdle, ReasonHeartbeatTimeout}:    StateError,
	{StateWorking, ReasonHeartbeatTimeout}: StateError,

	// Low balance: cooldown when idle, drain when working.
	{StateIdle, ReasonBalanceLow}:    StateCooldown,
	{StateWorking, ReasonBalanceLow}: StateDraining,
}

// IsValidTransition reports whether the (state, reason) pair is in the table.
func IsValidTransition(current State, reason Reason) bool {
	_, ok := validTransitions[transitionKey{current, reason}]
	return ok
}

// NextState returns the target state for a transition, or false if invalid.
func NextState(current State, reason Reason) (State, bool) {
	next, ok := validTransitions[transitionKey{current, reason}]
	return next, ok
}

// Transition attempts a state transition for a worker record.
//
// On an invalid (state, reason) pair it returns ErrInvalidTransition and the
// record is left untouched. On success it mutates the record in place:
// state, entry timestamp, and reason-specific side effects. It appends a
// TransitionEvent to the bounded history, and returns the event.
//
// The caller must guarantee exclusive access to the record; Roster does this
// for its own records.
func Transition(rec *WorkerRecord, reason Reason, cfg Config, now time.Time, details map[string]string) (*TransitionEvent, error) {
	next, ok := NextState(rec.State, reason)
	if !ok {
		return nil, ErrInvalidTransition
	}

	event := TransitionEvent{
		Worker:    rec.Name,
		From:      rec.State,
		To:        next,
		Reason:    reason,
		Timestamp: now,
		Details:   details,
	}

	rec.State = next
	rec.StateEnteredAt = now
	applyEffects(rec, reason, next, cfg, now, details)

	rec.History = append(rec.History, event)
	if len(rec.History) > historyLimit {
		rec.History = rec.History[len(rec.History)-historyLimit:]
	}

	return &event, nil
}

// applyEffects applies the reason-specific side effects of a transition.
func applyEffects(rec *WorkerRecord, reason Reason, next State, cfg Config, now time.Time, details map[string]string) {
	switch reason {
	case ReasonTaskAssigned:
		rec.CurrentTaskID = details["task_id"]
		rec.CurrentTaskStarted = now

	case ReasonTaskCompleted:
		rec.CurrentTaskID = ""
		rec.CurrentTaskStarted = time.Time{}
		rec.LastTaskCompleted = now
		rec.TotalSuccesses++
		rec.ConsecutiveFailures = 0

	case ReasonTaskFailed:
		rec.CurrentTaskID = ""
		rec.CurrentTaskStarted = time.Time{}
		rec.TotalFailures++
		rec.ConsecutiveFailures++

	case ReasonCircuitBreaker:
		rec.BreakerTrips++
		cooldown := ComputeCooldown(rec.BreakerTrips, cfg)
		rec.CooldownUntil = now.Add(cooldown)
		rec.CurrentTaskID = ""
		rec.CurrentTaskStarted = time.Time{}

	case ReasonCooldownExpired, ReasonRecovery:
		rec.CooldownUntil = time.Time{}
	}

	if next == StateOffline {
		// Full reset.
		rec.CurrentTaskID = ""
		rec.CurrentTaskStarted = time.Time{}
		rec.CooldownUntil = time.Time{}
	}
}
