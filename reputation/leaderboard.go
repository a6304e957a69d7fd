package reputation

import (
	"fmt"
	"sort"
	"strings"
)

// Ranking is one worker's position when ranked by composite score.
type Ranking struct {
	Worker string  `json:"worker"`
	Score  float64 `json:"score"`
	Tier   Tier    `json:"tier"`
}

// Rank orders workers by composite score descending, excluding those below
// the confidence threshold. Ties break by worker name ascending.
func Rank(reputations map[string]Unified, minConfidence float64) []Ranking {
	var out []Ranking
	for name, rep := range reputations {
		if rep.Confidence >= minConfidence {
			out = append(out, Ranking{Worker: name, Score: rep.Composite, Tier: rep.Tier})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Worker < out[j].Worker
	})
	return out
}

// LeaderboardEntry is one row of the generated leaderboard.
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	Worker     string  `json:"worker"`
	Score      float64 `json:"score"`
	Tier       Tier    `json:"tier"`
	Confidence float64 `json:"confidence"`
	Sources    int     `json:"sources"`

	OnChain       float64 `json:"on_chain"`
	OffChain      float64 `json:"off_chain"`
	Transactional float64 `json:"transactional"`
}

// Leaderboard builds ranked entries with per-layer detail. topN of 0 means
// all workers.
func Leaderboard(reputations map[string]Unified, topN int, minConfidence float64) []LeaderboardEntry {
	ranked := Rank(reputations, minConfidence)
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}

	entries := make([]LeaderboardEntry, 0, len(ranked))
	for i, r := range ranked {
		rep := reputations[r.Worker]
		entries = append(entries, LeaderboardEntry{
			Rank:          i + 1,
			Worker:        r.Worker,
			Score:         r.Score,
			Tier:          r.Tier,
			Confidence:    rep.Confidence,
			Sources:       len(rep.Sources),
			OnChain:       rep.OnChainScore,
			OffChain:      rep.OffChainScore,
			Transactional: rep.TransactionalScore,
		})
	}
	return entries
}

// FormatLeaderboard renders entries as human-readable text.
func FormatLeaderboard(entries []LeaderboardEntry) string {
	if len(entries) == 0 {
		return "no reputation data available"
	}

	var b strings.Builder
	b.WriteString("Swarm Reputation Leaderboard\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "%3d. %-24s %6.1f (%s) [%d sources, conf %.0f%%]\n",
			e.Rank, e.Worker, e.Score, e.Tier, e.Sources, e.Confidence*100)
		fmt.Fprintf(&b, "     on-chain %5.1f | off-chain %5.1f | transactional %5.1f\n",
			e.OnChain, e.OffChain, e.Transactional)
	}
	return b.String()
}
