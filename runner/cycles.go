package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/hivemesh/swarmd/coordinator"
	"github.com/hivemesh/swarmd/lifecycle"
	"github.com/hivemesh/swarmd/match"
	"github.com/hivemesh/swarmd/reputation"
	"github.com/hivemesh/swarmd/swarmstate"
	"github.com/hivemesh/swarmd/telemetry"
)

// RunCoordination executes one coordination cycle and persists runner
// state afterward, success or not. Returns ErrPaused while paused.
func (r *Runner) RunCoordination(ctx context.Context) (*coordinator.CycleResult, error) {
	if r.Paused() {
		return nil, ErrPaused
	}

	start := r.now()
	result, err := r.coord.RunCycle(ctx)

	metric := CycleMetric{
		Kind:      "coordination",
		StartedAt: start,
		Duration:  r.now().Sub(start),
	}
	if result != nil {
		metric.Assignments = len(result.Assignments)
	}
	if err != nil {
		metric.Error = err.Error()
	}
	r.recordMetric(metric)

	r.mu.Lock()
	r.rstate.LastCoordination = start
	if err != nil {
		r.rstate.ConsecutiveFailures++
		if r.rstate.ConsecutiveFailures >= r.cfg.MaxConsecutiveFailures {
			r.rstate.Paused = true
		}
	} else {
		r.rstate.ConsecutiveFailures = 0
	}
	paused := r.rstate.Paused
	failures := r.rstate.ConsecutiveFailures
	r.mu.Unlock()

	event := map[string]interface{}{
		"duration_ms": metric.Duration.Milliseconds(),
		"assignments": metric.Assignments,
	}
	if result != nil {
		event["cycle"] = result.CycleID
		event["candidates"] = result.Candidates
		event["errors"] = result.Errors
	}
	if err != nil {
		event["error"] = err.Error()
	}
	r.events.LogEvent(telemetry.EventCoordination, event)

	if err != nil {
		r.log.Error("coordination cycle failed", map[string]interface{}{
			"error":                err.Error(),
			"consecutive_failures": failures,
		})
		if paused {
			r.log.Error("auto-paused after repeated failures", map[string]interface{}{
				"failures": failures,
			})
			r.events.LogEvent(telemetry.EventPaused, map[string]interface{}{
				"failures": failures,
			})
		}
	} else if !r.coord.Config().DryRun {
		if _, perr := r.coord.SaveProfiles(r.profilesDir(), r.now()); perr != nil {
			r.log.Warn("profile save failed", map[string]interface{}{"error": perr.Error()})
		}
	}

	if serr := r.SaveState(); serr != nil {
		r.log.Warn("state save failed", map[string]interface{}{"error": serr.Error()})
	}
	return result, err
}

// RunReputation executes one reputation refresh: pull sources, fuse,
// write a leaderboard snapshot, and hand the scores to the coordinator.
// Without a source function it is a no-op.
func (r *Runner) RunReputation(ctx context.Context) error {
	if r.sources == nil {
		return nil
	}

	start := r.now()
	err := r.refreshReputation(ctx)

	metric := CycleMetric{
		Kind:      "reputation",
		StartedAt: start,
		Duration:  r.now().Sub(start),
	}
	if err != nil {
		metric.Error = err.Error()
	}
	r.recordMetric(metric)

	r.mu.Lock()
	r.rstate.LastReputation = start
	r.mu.Unlock()

	event := map[string]interface{}{
		"duration_ms": metric.Duration.Milliseconds(),
	}
	if err != nil {
		event["error"] = err.Error()
	}
	r.events.LogEvent(telemetry.EventReputation, event)

	if serr := r.SaveState(); serr != nil {
		r.log.Warn("state save failed", map[string]interface{}{"error": serr.Error()})
	}
	return err
}

func (r *Runner) refreshReputation(ctx context.Context) error {
	sources, err := r.sources(ctx)
	if err != nil {
		return fmt.Errorf("pull reputation sources: %w", err)
	}

	fused := reputation.ComputeAll(sources, r.repCfg)

	path, err := reputation.SaveSnapshot(fused, r.snapshotsDir(), r.now())
	if err != nil {
		return fmt.Errorf("save reputation snapshot: %w", err)
	}

	scores := make(map[string]match.RepScore, len(fused))
	for worker, u := range fused {
		scores[worker] = match.RepScore{Composite: u.Composite, Confidence: u.Confidence}
	}
	r.coord.SetReputation(scores)

	r.mu.Lock()
	r.rstate.LastSnapshot = path
	r.mu.Unlock()

	r.log.Info("reputation refreshed", map[string]interface{}{
		"workers":  len(fused),
		"snapshot": path,
	})
	return nil
}

// HealthReport combines the fleet assessment with the swarm summary.
type HealthReport struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Summary     swarmstate.Summary `json:"summary"`
	Stale       []string           `json:"stale_workers,omitempty"`

	// Fleet assessment, present when the runner has a roster.
	Fleet   *lifecycle.Health  `json:"fleet,omitempty"`
	Actions []lifecycle.Action `json:"actions,omitempty"`
}

// RunHealth produces a health report. It runs even while paused.
func (r *Runner) RunHealth(ctx context.Context) (*HealthReport, error) {
	start := r.now()

	report := &HealthReport{
		GeneratedAt: start,
		Summary:     r.state.Summarize(r.cfg.StaleAfter()),
		Stale:       r.state.StaleWorkers(r.cfg.StaleAfter()),
	}
	if r.roster != nil {
		health := r.roster.Health(start)
		report.Fleet = &health
		report.Actions = r.roster.Actions(start)
	}

	r.recordMetric(CycleMetric{
		Kind:      "health",
		StartedAt: start,
		Duration:  r.now().Sub(start),
	})

	r.mu.Lock()
	r.rstate.LastHealth = start
	r.mu.Unlock()

	r.events.LogEvent(telemetry.EventHealth, map[string]interface{}{
		"workers": report.Summary.Workers,
		"stale":   len(report.Stale),
	})

	if serr := r.SaveState(); serr != nil {
		r.log.Warn("state save failed", map[string]interface{}{"error": serr.Error()})
	}
	return report, ctx.Err()
}

func (r *Runner) profilesDir() string {
	return filepath.Join(r.cfg.DataDir, "profiles")
}

func (r *Runner) snapshotsDir() string {
	return filepath.Join(r.cfg.DataDir, "reputation")
}
