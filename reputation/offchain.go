package reputation

import "math"

// PerformanceData is the raw performance snapshot the off-chain layer is
// extracted from. Produced by the coordinator's performance tracking; the
// zero value means "no history".
type PerformanceData struct {
	TasksCompleted      int            `json:"tasks_completed"`
	TasksAttempted      int            `json:"tasks_attempted"`
	Reliability         float64        `json:"reliability"`
	AvgRatingReceived   float64        `json:"avg_rating_received"`
	CategoryCompletions map[string]int `json:"category_completions,omitempty"`
	CategoryAttempts    map[string]int `json:"category_attempts,omitempty"`
	NetworkTasks        map[string]int `json:"network_tasks,omitempty"`
	TotalEarned         float64        `json:"total_earned"`
}

// OffChain is the performance-derived layer for one worker.
type OffChain struct {
	Worker string `json:"worker"`

	CompletionRate float64 `json:"completion_rate"`
	Reliability    float64 `json:"reliability"`
	AvgRating      float64 `json:"avg_rating"` // 0-100, neutral 50 when unrated
	TasksCompleted int     `json:"tasks_completed"`
	TasksAttempted int     `json:"tasks_attempted"`
	TotalEarned    float64 `json:"total_earned"`

	// CategoryStrengths maps category to completion ratio in [0,1].
	CategoryStrengths map[string]float64 `json:"category_strengths,omitempty"`

	// NetworkExperience maps network to a saturating experience score.
	NetworkExperience map[string]float64 `json:"network_experience,omitempty"`

	// breadthCap is the category count at which breadth saturates.
	breadthCap int
}

// ExtractOffChain normalizes a performance snapshot into the off-chain layer.
// A nil snapshot yields the neutral layer (completion rate 0.5, zero
// confidence).
func ExtractOffChain(worker string, perf *PerformanceData, cfg Config) OffChain {
	rep := OffChain{
		Worker:         worker,
		CompletionRate: 0.5,
		Reliability:    0.5,
		AvgRating:      50.0,
		breadthCap:     cfg.CategoryBreadth,
	}
	if rep.breadthCap <= 0 {
		rep.breadthCap = DefaultConfig().CategoryBreadth
	}
	if perf == nil {
		return rep
	}

	rep.TasksCompleted = perf.TasksCompleted
	rep.TasksAttempted = perf.TasksAttempted
	rep.TotalEarned = perf.TotalEarned

	if perf.TasksAttempted > 0 {
		rep.CompletionRate = float64(perf.TasksCompleted) / float64(perf.TasksAttempted)
	}
	if perf.Reliability > 0 {
		rep.Reliability = perf.Reliability
	}
	if perf.AvgRatingReceived > 0 {
		rep.AvgRating = perf.AvgRatingReceived
	}

	if len(perf.CategoryCompletions) > 0 || len(perf.CategoryAttempts) > 0 {
		rep.CategoryStrengths = make(map[string]float64)
		for cat, attempted := range perf.CategoryAttempts {
			if attempted > 0 {
				rep.CategoryStrengths[cat] = float64(perf.CategoryCompletions[cat]) / float64(attempted)
			}
		}
	}

	if len(perf.NetworkTasks) > 0 {
		rep.NetworkExperience = make(map[string]float64, len(perf.NetworkTasks))
		for network, count := range perf.NetworkTasks {
			if count > 0 {
				rep.NetworkExperience[network] = math.Min(1, 0.3+0.3*math.Log(float64(count)+1))
			}
		}
	}

	return rep
}

// Score combines reliability (50%), average rating (30%), and experience
// breadth (20%) into a 0-100 score. Breadth is the distinct-category count
// over the configured saturation cap.
func (o OffChain) Score() float64 {
	denom := o.breadthCap
	if denom <= 0 {
		denom = DefaultConfig().CategoryBreadth
	}
	breadth := math.Min(1, float64(len(o.CategoryStrengths))/float64(denom))
	raw := 0.50*o.Reliability*100 + 0.30*o.AvgRating + 0.20*breadth*100
	return clamp100(raw)
}

// Confidence grows logarithmically with tasks attempted; zero with no
// attempts.
func (o OffChain) Confidence() float64 {
	if o.TasksAttempted == 0 {
		return 0
	}
	return math.Min(1, 0.2+0.3*math.Log(float64(o.TasksAttempted)+1)/math.Log(50))
}
