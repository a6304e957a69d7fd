package runner

import (
	"context"
	"errors"
	"time"
)

// maxSleep caps the daemon's sleep so shutdown and unpause stay
// responsive.
const maxSleep = 30 * time.Second

// Daemon runs cycles on their intervals until the context is cancelled.
// State is saved on the way out.
func (r *Runner) Daemon(ctx context.Context) error {
	r.log.Info("daemon started", map[string]interface{}{
		"coordination_interval": r.cfg.CoordinationInterval().String(),
		"reputation_interval":   r.cfg.ReputationInterval().String(),
		"health_interval":       r.cfg.HealthInterval().String(),
	})

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := r.SaveState(); err != nil {
				r.log.Warn("final state save failed", map[string]interface{}{"error": err.Error()})
			}
			r.log.Info("daemon stopped", nil)
			return ctx.Err()
		case <-timer.C:
		}

		now := r.now()
		r.runDue(ctx, now)
		timer.Reset(r.sleepUntilDue(r.now()))
	}
}

// runDue fires every cycle whose interval has elapsed.
func (r *Runner) runDue(ctx context.Context, now time.Time) {
	r.mu.Lock()
	st := r.rstate
	r.mu.Unlock()

	if now.Sub(st.LastCoordination) >= r.cfg.CoordinationInterval() {
		if _, err := r.RunCoordination(ctx); err != nil && !errors.Is(err, ErrPaused) && ctx.Err() != nil {
			return
		}
	}
	if r.sources != nil && now.Sub(st.LastReputation) >= r.cfg.ReputationInterval() {
		if err := r.RunReputation(ctx); err != nil && ctx.Err() != nil {
			return
		}
	}
	if now.Sub(st.LastHealth) >= r.cfg.HealthInterval() {
		if _, err := r.RunHealth(ctx); err != nil && ctx.Err() != nil {
			return
		}
	}
}

// sleepUntilDue returns the time to the nearest due cycle, capped.
func (r *Runner) sleepUntilDue(now time.Time) time.Duration {
	r.mu.Lock()
	st := r.rstate
	r.mu.Unlock()

	next := st.LastCoordination.Add(r.cfg.CoordinationInterval())
	if r.sources != nil {
		if t := st.LastReputation.Add(r.cfg.ReputationInterval()); t.Before(next) {
			next = t
		}
	}
	if t := st.LastHealth.Add(r.cfg.HealthInterval()); t.Before(next) {
		next = t
	}

	d := next.Sub(now)
	if d < time.Second {
		d = time.Second
	}
	if d > maxSleep {
		d = maxSleep
	}
	return d
}
