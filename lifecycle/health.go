package lifecycle

import (
	"fmt"
	"sort"
	"time"
)

// Health is a fleet-wide health assessment.
type Health struct {
	TotalWorkers    int `json:"total_workers"`
	OnlineWorkers   int `json:"online"`
	WorkingWorkers  int `json:"working"`
	IdleWorkers     int `json:"idle"`
	CooldownWorkers int `json:"cooldown"`
	ErrorWorkers    int `json:"error"`
	OfflineWorkers  int `json:"offline"`
	StartingWorkers int `json:"starting"`

	TotalFailures       int `json:"total_failures"`
	TotalSuccesses      int `json:"total_successes"`
	LowBalanceWorkers   int `json:"low_balance"`
	StaleHeartbeatCount int `json:"stale_heartbeats"`

	AvailabilityRatio float64 `json:"availability_ratio"`
	SuccessRatio      float64 `json:"success_ratio"`
}

// AssessHealth summarizes the fleet: per-state counts, aggregate task
// counters, low-balance and stale-heartbeat flags, and the derived ratios.
// It is a read-only pass over the roster.
func AssessHealth(workers []*WorkerRecord, cfg Config, now time.Time) Health {
	h := Health{TotalWorkers: len(workers)}

	for _, w := range workers {
		switch w.State {
		case StateIdle:
			h.IdleWorkers++
			h.OnlineWorkers++
		case StateWorking:
			h.WorkingWorkers++
			h.OnlineWorkers++
		case StateCooldown:
			h.CooldownWorkers++
		case StateError:
			h.ErrorWorkers++
		case StateOffline:
			h.OfflineWorkers++
		case StateStarting:
			h.StartingWorkers++
		}

		h.TotalFailures += w.TotalFailures
		h.TotalSuccesses += w.TotalSuccesses

		if !CheckBalance(w, cfg).OK() {
			h.LowBalanceWorkers++
		}

		switch CheckHeartbeat(w, cfg, now) {
		case HeartbeatStale, HeartbeatDead:
			h.StaleHeartbeatCount++
		}
	}

	if h.TotalWorkers > 0 {
		h.AvailabilityRatio = float64(h.OnlineWorkers) / float64(h.TotalWorkers)
	}
	if total := h.TotalSuccesses + h.TotalFailures; total > 0 {
		h.SuccessRatio = float64(h.TotalSuccesses) / float64(total)
	}

	return h
}

// Priority orders recommended actions; lower rank is more urgent.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

var priorityRank = map[Priority]int{
	PriorityCritical: 0,
	PriorityHigh:     1,
	PriorityMedium:   2,
	PriorityLow:      3,
}

// Action is a single recommended intervention for one worker.
type Action struct {
	Action   string   `json:"action"`
	Worker   string   `json:"worker"`
	Reason   string   `json:"reason"`
	Priority Priority `json:"priority"`
}

// RecommendActions turns lifecycle anomalies into a prioritized action list.
// The result is sorted by priority rank and is otherwise stable.
func RecommendActions(workers []*WorkerRecord, cfg Config, now time.Time) []Action {
	var actions []Action

	for _, w := range workers {
		if w.State == StateCooldown && IsCooldownExpired(w, now) {
			actions = append(actions, Action{
				Action:   "cooldown_release",
				Worker:   w.Name,
				Reason:   fmt.Sprintf("cooldown expired (trips: %d)", w.BreakerTrips),
				Priority: PriorityMedium,
			})
		}

		if CheckTaskTimeout(w, cfg, now) {
			actions = append(actions, Action{
				Action:   "task_timeout",
				Worker:   w.Name,
				Reason:   fmt.Sprintf("task %s exceeded timeout", w.CurrentTaskID),
				Priority: PriorityHigh,
			})
		}

		if w.State.Online() {
			if ShouldTrip(w, cfg) {
				actions = append(actions, Action{
					Action:   "trip_breaker",
					Worker:   w.Name,
					Reason:   fmt.Sprintf("%d consecutive failures", w.ConsecutiveFailures),
					Priority: PriorityHigh,
				})
			}

			switch CheckHeartbeat(w, cfg, now) {
			case HeartbeatDead:
				actions = append(actions, Action{
					Action:   "recover",
					Worker:   w.Name,
					Reason:   "worker presumed dead (no heartbeat)",
					Priority: PriorityCritical,
				})
			case HeartbeatStale:
				actions = append(actions, Action{
					Action:   "check",
					Worker:   w.Name,
					Reason:   "heartbeat is stale",
					Priority: PriorityLow,
				})
			}

			if bal := CheckBalance(w, cfg); !bal.OK() {
				reason := "low balance:"
				if !bal.CreditOK {
					reason += fmt.Sprintf(" credit=%g", w.CreditBalance)
				}
				if !bal.GasOK {
					reason += fmt.Sprintf(" gas=%g", w.GasBalance)
				}
				actions = append(actions, Action{
					Action:   "balance_alert",
					Worker:   w.Name,
					Reason:   reason,
					Priority: PriorityHigh,
				})
			}
		}

		if w.State == StateError {
			actions = append(actions, Action{
				Action:   "recover",
				Worker:   w.Name,
				Reason:   "worker in error state",
				Priority: PriorityMedium,
			})
		}
	}

	sort.SliceStable(actions, func(i, j int) bool {
		return priorityRank[actions[i].Priority] < priorityRank[actions[j].Priority]
	})

	return actions
}
