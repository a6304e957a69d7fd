package reputation

import (
	"math"
	"testing"
)

func TestExtractOffChain_NilDataIsNeutral(t *testing.T) {
	rep := ExtractOffChain("w1", nil, DefaultConfig())

	if rep.CompletionRate != 0.5 {
		t.Errorf("CompletionRate = %v, want neutral 0.5", rep.CompletionRate)
	}
	if rep.Confidence() != 0 {
		t.Errorf("Confidence = %v, want 0", rep.Confidence())
	}
	// reliability 0.5, rating 50, no breadth: 25 + 15 + 0 = 40.
	if got := rep.Score(); math.Abs(got-40) > 0.001 {
		t.Errorf("Score = %v, want 40", got)
	}
}

func TestExtractOffChain(t *testing.T) {
	cfg := DefaultConfig()
	perf := &PerformanceData{
		TasksCompleted:      8,
		TasksAttempted:      10,
		Reliability:         0.9,
		AvgRatingReceived:   80,
		CategoryCompletions: map[string]int{"dev": 5, "research": 3},
		CategoryAttempts:    map[string]int{"dev": 6, "research": 4},
		NetworkTasks:        map[string]int{"base": 4},
		TotalEarned:         120.5,
	}

	rep := ExtractOffChain("w1", perf, cfg)

	if rep.CompletionRate != 0.8 {
		t.Errorf("CompletionRate = %v, want 0.8", rep.CompletionRate)
	}
	if got := rep.CategoryStrengths["dev"]; math.Abs(got-5.0/6.0) > 0.001 {
		t.Errorf("CategoryStrengths[dev] = %v, want %v", got, 5.0/6.0)
	}
	wantExp := math.Min(1, 0.3+0.3*math.Log(5))
	if got := rep.NetworkExperience["base"]; math.Abs(got-wantExp) > 0.001 {
		t.Errorf("NetworkExperience[base] = %v, want %v", got, wantExp)
	}

	// 0.5*90 + 0.3*80 + 0.2*(2/5)*100 = 45 + 24 + 8 = 77.
	if got := rep.Score(); math.Abs(got-77) > 0.001 {
		t.Errorf("Score = %v, want 77", got)
	}
	if rep.Confidence() <= 0 || rep.Confidence() > 1 {
		t.Errorf("Confidence = %v, want in (0,1]", rep.Confidence())
	}
}

func TestOffChain_BreadthDenominatorConfigurable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CategoryBreadth = 2
	perf := &PerformanceData{
		TasksAttempted:   4,
		TasksCompleted:   4,
		Reliability:      0.5,
		CategoryAttempts: map[string]int{"dev": 2, "research": 2},
		CategoryCompletions: map[string]int{
			"dev": 2, "research": 2,
		},
	}

	rep := ExtractOffChain("w1", perf, cfg)

	// Two categories saturate breadth at denominator 2:
	// 0.5*50 + 0.3*50 + 0.2*100 = 25 + 15 + 20 = 60.
	if got := rep.Score(); math.Abs(got-60) > 0.001 {
		t.Errorf("Score = %v, want 60", got)
	}
}

func TestTransactional(t *testing.T) {
	tests := []struct {
		name       string
		data       *RatingData
		wantScore  float64
		wantConfGT float64
	}{
		{"nil data neutral", nil, 50, -1},
		{"unrated neutral", &RatingData{}, 50, -1},
		{"rated", &RatingData{AvgRatingReceived: 88, TotalRatingsReceived: 10}, 88, 0},
		{"clamped", &RatingData{AvgRatingReceived: 140, TotalRatingsReceived: 3}, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := ExtractTransactional("w1", tt.data)
			if got := rep.Score(); got != tt.wantScore {
				t.Errorf("Score = %v, want %v", got, tt.wantScore)
			}
			if conf := rep.Confidence(); conf <= tt.wantConfGT {
				t.Errorf("Confidence = %v, want > %v", conf, tt.wantConfGT)
			}
		})
	}

	unrated := ExtractTransactional("w1", &RatingData{})
	if unrated.Confidence() != 0 {
		t.Errorf("unrated Confidence = %v, want 0", unrated.Confidence())
	}
}

func TestClassifyTier(t *testing.T) {
	tests := []struct {
		score float64
		want  Tier
	}{
		{95, TierDiamond},
		{81, TierDiamond},
		{80.9, TierGold},
		{61, TierGold},
		{60, TierSilver},
		{31, TierSilver},
		{30, TierBronze},
		{0, TierBronze},
		{-1, TierUnknown},
	}

	for _, tt := range tests {
		if got := ClassifyTier(tt.score); got != tt.want {
			t.Errorf("ClassifyTier(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}
