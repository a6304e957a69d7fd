package lifecycle

import (
	"math"
	"math/rand"
	"time"
)

// ShouldTrip reports whether the circuit breaker should trip for a worker,
// i.e. its consecutive failures reached the configured threshold.
func ShouldTrip(rec *WorkerRecord, cfg Config) bool {
	return rec.ConsecutiveFailures >= cfg.BreakerThreshold
}

// ComputeCooldown computes the cooldown duration for the given trip count
// using exponential backoff with jitter:
//
//	raw      = base * multiplier^(tripCount-1)
//	capped   = min(raw, max)
//	jittered = capped ± capped*jitter
//
// The result is never negative. Ignoring jitter it is non-decreasing in
// tripCount up to the cap.
func ComputeCooldown(tripCount int, cfg Config) time.Duration {
	exp := math.Max(0, float64(tripCount-1))
	raw := cfg.CooldownBase.Seconds() * math.Pow(cfg.CooldownMultiplier, exp)
	capped := math.Min(raw, cfg.CooldownMax.Seconds())

	jitterRange := capped * cfg.CooldownJitter
	jittered := capped + (rand.Float64()*2-1)*jitterRange

	if jittered < 0 {
		jittered = 0
	}
	return time.Duration(jittered * float64(time.Second))
}

// IsCooldownExpired reports whether a worker's cooldown period has ended.
// A worker with no cooldown set is considered expired.
func IsCooldownExpired(rec *WorkerRecord, now time.Time) bool {
	if rec.CooldownUntil.IsZero() {
		return true
	}
	return !now.Before(rec.CooldownUntil)
}
