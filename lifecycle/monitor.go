package lifecycle

import "time"

// HeartbeatStatus classifies the freshness of a worker's last heartbeat.
type HeartbeatStatus string

const (
	// HeartbeatAlive means the heartbeat is fresh.
	HeartbeatAlive HeartbeatStatus = "alive"

	// HeartbeatStale means the heartbeat is older than the stale threshold.
	HeartbeatStale HeartbeatStatus = "stale"

	// HeartbeatDead means the heartbeat is older than the dead threshold.
	HeartbeatDead HeartbeatStatus = "dead"

	// HeartbeatUnknown means no heartbeat has been recorded.
	HeartbeatUnknown HeartbeatStatus = "unknown"
)

// CheckHeartbeat classifies a worker's liveness from its last heartbeat age.
func CheckHeartbeat(rec *WorkerRecord, cfg Config, now time.Time) HeartbeatStatus {
	if rec.LastHeartbeat.IsZero() {
		return HeartbeatUnknown
	}

	age := now.Sub(rec.LastHeartbeat)
	switch {
	case age > cfg.DeadThreshold:
		return HeartbeatDead
	case age > cfg.StaleThreshold:
		return HeartbeatStale
	default:
		return HeartbeatAlive
	}
}

// RecordHeartbeat stores a heartbeat timestamp on the record.
func RecordHeartbeat(rec *WorkerRecord, now time.Time) {
	rec.LastHeartbeat = now
}

// CheckTaskTimeout reports whether the worker's current task has exceeded
// the configured task timeout. Only WORKING workers with a task start time
// can time out.
func CheckTaskTimeout(rec *WorkerRecord, cfg Config, now time.Time) bool {
	if rec.State != StateWorking || rec.CurrentTaskStarted.IsZero() {
		return false
	}
	return now.Sub(rec.CurrentTaskStarted) > cfg.TaskTimeout
}

// BalanceStatus reports which resource balances are above their minimums.
type BalanceStatus struct {
	CreditOK bool
	GasOK    bool
}

// OK returns true when both balances are above their minimums.
func (b BalanceStatus) OK() bool {
	return b.CreditOK && b.GasOK
}

// CheckBalance compares the worker's balances against the configured minimums.
func CheckBalance(rec *WorkerRecord, cfg Config) BalanceStatus {
	return BalanceStatus{
		CreditOK: rec.CreditBalance >= cfg.MinCreditBalance,
		GasOK:    rec.GasBalance >= cfg.MinGasBalance,
	}
}

// UpdateBalance sets the worker's resource balances. Negative arguments
// leave the corresponding balance unchanged.
func UpdateBalance(rec *WorkerRecord, credit, gas float64) {
	if credit >= 0 {
		rec.CreditBalance = credit
	}
	if gas >= 0 {
		rec.GasBalance = gas
	}
}
