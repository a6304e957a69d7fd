package coordinator

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	swarmerrors "github.com/hivemesh/swarmd/errors"
	"github.com/hivemesh/swarmd/marketplace"
	"github.com/hivemesh/swarmd/match"
	"github.com/hivemesh/swarmd/swarmstate"
)

// Assignment records one claim made during a cycle.
type Assignment struct {
	TaskID string  `json:"task_id"`
	Title  string  `json:"title"`
	Worker string  `json:"worker"`
	Score  float64 `json:"score"`
	Base   float64 `json:"base_score"`
	Mode   string  `json:"mode"`
	Value  float64 `json:"value"`

	// Alternatives are the runner-up matches, best first.
	Alternatives []match.Match `json:"alternatives,omitempty"`

	// Notified is false when the claim stood but the worker
	// notification failed.
	Notified bool `json:"notified"`
}

// CycleResult summarizes one coordination cycle.
type CycleResult struct {
	// CycleID correlates log lines and telemetry for one cycle.
	CycleID string `json:"cycle_id"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	DryRun    bool          `json:"dry_run"`

	Assignments []Assignment `json:"assignments"`

	// Candidates browsed this cycle.
	Candidates int `json:"candidates"`

	// SkippedOwn counts candidates posted by our own identity.
	SkippedOwn int `json:"skipped_own"`

	// SkippedClaimed counts candidates lost to another process's claim.
	SkippedClaimed int `json:"skipped_claimed"`

	// SkippedUnmatched counts candidates with no eligible match.
	SkippedUnmatched int `json:"skipped_unmatched"`

	// Errors counts non-fatal failures (notify errors, claim store
	// errors other than conflicts).
	Errors int `json:"errors"`

	// Faults are the structured records behind the Errors count.
	Faults []*swarmerrors.Error `json:"faults,omitempty"`

	StaleWorkers []string           `json:"stale_workers,omitempty"`
	Summary      swarmstate.Summary `json:"summary"`
}

// RunCycle executes one coordination cycle. Everything inside it is
// best-effort: a browse failure is recorded and the cycle carries on
// with no candidates. Cancellation is honored between candidates,
// never between a claim and its bookkeeping.
func (c *Coordinator) RunCycle(ctx context.Context) (*CycleResult, error) {
	start := time.Now()
	result := &CycleResult{
		CycleID:   uuid.NewString(),
		StartedAt: start,
		DryRun:    c.cfg.DryRun,
	}

	states := c.state.WorkerStates()
	eligible := c.eligibleWorkers(states)

	faults := swarmerrors.NewCollector(0)

	// Marketplace downtime does not fail the cycle: worker state and
	// health reporting still run against zero candidates.
	candidates, err := c.market.Browse(ctx, c.cfg.BrowseLimit)
	if err != nil {
		c.log.Warn("browse failed, continuing without candidates", map[string]interface{}{
			"error": err.Error(),
		})
		faults.Add(swarmerrors.WrapWithCode(err, swarmerrors.ErrCodeMarketplace, "browse candidates"))
		result.Errors++
		candidates = nil
	}
	result.Candidates = len(candidates)

	c.log.Info("coordination cycle started", map[string]interface{}{
		"cycle":      result.CycleID,
		"candidates": len(candidates),
		"eligible":   len(eligible),
		"dry_run":    c.cfg.DryRun,
	})

	skillsByWorker := map[string][]string{}
	if c.skills != nil {
		skillsByWorker = c.skills.SkillsByWorker()
	}

	c.mu.RLock()
	reputation := c.reputation
	c.mu.RUnlock()

	assigned := make(map[string]bool)

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(start)
			return result, err
		}
		if len(result.Assignments) >= c.cfg.MaxAssignments {
			break
		}
		if c.cfg.Identity != "" && candidate.OwnerID == c.cfg.Identity {
			result.SkippedOwn++
			continue
		}

		ranked := c.rank(candidate, eligible, assigned, skillsByWorker, reputation)
		if len(ranked) == 0 {
			result.SkippedUnmatched++
			continue
		}

		top := ranked[0]
		assignment := Assignment{
			TaskID: candidate.ID,
			Title:  candidate.Title,
			Worker: top.Worker,
			Score:  top.Score,
			Base:   top.Base,
			Mode:   top.Mode,
			Value:  candidate.Value,
		}
		if n := c.cfg.Alternatives; n > 0 && len(ranked) > 1 {
			alts := ranked[1:]
			if len(alts) > n {
				alts = alts[:n]
			}
			assignment.Alternatives = alts
		}

		if c.cfg.DryRun {
			assigned[top.Worker] = true
			result.Assignments = append(result.Assignments, assignment)
			continue
		}

		err := c.state.ClaimTask(swarmstate.Claim{
			TaskID: candidate.ID,
			Worker: top.Worker,
			Value:  candidate.Value,
		})
		switch {
		case errors.Is(err, swarmstate.ErrAlreadyClaimed):
			// Taken by another process: the task is gone, not the worker.
			result.SkippedClaimed++
			continue
		case err != nil:
			c.log.Warn("claim failed", map[string]interface{}{
				"task":  candidate.ID,
				"error": err.Error(),
			})
			faults.Add(swarmerrors.ClaimFailed(candidate.ID, err, swarmerrors.WithWorker(top.Worker)))
			result.Errors++
			continue
		}

		// Claim succeeded. The worker is assigned from here on no matter
		// what the notification does.
		assigned[top.Worker] = true
		c.recordAttempt(top.Worker, candidate)
		if nerr := c.notify(top.Worker, candidate, top.Score); nerr != nil {
			faults.Add(swarmerrors.NotifyFailed(top.Worker, candidate.ID, nerr))
			result.Errors++
		} else {
			assignment.Notified = true
		}
		result.Assignments = append(result.Assignments, assignment)

		c.log.Info("task assigned", map[string]interface{}{
			"task":   candidate.ID,
			"worker": top.Worker,
			"score":  top.Score,
		})
	}

	result.Faults = faults.Errors()
	result.StaleWorkers = c.state.StaleWorkers(c.cfg.StaleAfter)
	result.Summary = c.state.Summarize(c.cfg.StaleAfter)
	result.Duration = time.Since(start)
	return result, nil
}

// eligibleWorkers filters the live worker picture down to assignable
// workers: idle and not a system worker.
func (c *Coordinator) eligibleWorkers(states map[string]swarmstate.WorkerStatus) map[string]bool {
	system := make(map[string]bool, len(c.cfg.SystemWorkers))
	for _, name := range c.cfg.SystemWorkers {
		system[name] = true
	}

	eligible := make(map[string]bool)
	for name, status := range states {
		if status.State != IdleState || system[name] {
			continue
		}
		eligible[name] = true
	}
	return eligible
}

// rank scores eligible, unassigned workers for one candidate.
func (c *Coordinator) rank(
	candidate marketplace.Candidate,
	eligible map[string]bool,
	assigned map[string]bool,
	skillsByWorker map[string][]string,
	reputation map[string]match.RepScore,
) []match.Match {
	c.mu.RLock()
	stored := c.profiles
	c.mu.RUnlock()

	profiles := make(map[string]*match.Profile, len(eligible))
	for worker := range eligible {
		if assigned[worker] {
			continue
		}
		if p, ok := stored[worker]; ok {
			profiles[worker] = p
		} else {
			profiles[worker] = match.NewProfile(worker)
		}
	}

	task := match.Task{
		Title:       candidate.Title,
		Description: candidate.Description,
		Category:    candidate.Category,
		Network:     candidate.Network,
		Value:       candidate.Value,
	}
	return match.Rank(profiles, skillsByWorker, task, c.cfg.Match, match.RankOptions{
		Reputation: reputation,
	})
}

// notify queues the assignment notification.
func (c *Coordinator) notify(worker string, candidate marketplace.Candidate, score float64) error {
	payload := map[string]interface{}{
		"task_id":     candidate.ID,
		"title":       candidate.Title,
		"value":       candidate.Value,
		"match_score": score,
	}
	if _, err := c.state.Notify(worker, swarmstate.NotifyAssignment, payload); err != nil {
		c.log.Warn("notify failed, claim stands", map[string]interface{}{
			"worker": worker,
			"task":   candidate.ID,
			"error":  err.Error(),
		})
		return err
	}
	return nil
}
