package match

import "sort"

// RepScore is the reputation input to the ranking boost.
type RepScore struct {
	Composite  float64 // 0-100
	Confidence float64 // 0-1
}

// Match is one worker's ranked fit for a task.
type Match struct {
	Worker string  `json:"worker"`
	Score  float64 `json:"score"`
	Base   float64 `json:"base_score"`
	Mode   string  `json:"mode"` // enhanced or legacy
}

// RankOptions filters and augments a ranking pass.
type RankOptions struct {
	// Exclude names workers to skip (system workers, already assigned).
	Exclude map[string]bool

	// Reputation, when present, applies the confidence-dampened boost.
	Reputation map[string]RepScore
}

// Rank scores every worker for a task and returns matches sorted descending
// by score, ties broken by worker name ascending. Workers below
// cfg.MinScore are excluded, as are zero scores: a worker with no fit
// at all never wins by default.
func Rank(profiles map[string]*Profile, skills map[string][]string, task Task, cfg Config, opts RankOptions) []Match {
	mode := "enhanced"
	if cfg.Legacy {
		mode = "legacy"
	}

	var out []Match
	for worker, p := range profiles {
		if opts.Exclude[worker] {
			continue
		}

		var base float64
		if cfg.Legacy {
			base = LegacyScore(skills[worker], task, cfg.SwarmTag)
		} else {
			base = Score(p, skills[worker], task, cfg)
		}

		score := base
		if !cfg.Legacy {
			if rep, ok := opts.Reputation[worker]; ok && rep.Confidence > 0 {
				score = BoostScore(base, rep.Composite, rep.Confidence, cfg.ReputationWeight)
			}
		}

		if score <= 0 || score < cfg.MinScore {
			continue
		}
		out = append(out, Match{Worker: worker, Score: score, Base: base, Mode: mode})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Worker < out[j].Worker
	})
	return out
}
