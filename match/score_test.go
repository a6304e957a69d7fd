package match

import (
	"math"
	"testing"
)

func TestSkillScore(t *testing.T) {
	task := Task{
		Title:       "Write Solidity smart contract audit",
		Description: "Review the staking contract for reentrancy issues",
	}

	tests := []struct {
		name   string
		skills []string
		task   Task
		want   float64
	}{
		{"exact match", []string{"solidity"}, task, 1.0},
		{"spaced form matches", []string{"smart_contract"}, task, 1.0},
		{"partial word credit", []string{"audit_reports"}, task, 0.5},
		{"no match", []string{"cooking"}, task, 0.0},
		{"no skills floor", nil, task, 0.1},
		{"tagged task floor", []string{"cooking"}, Task{Title: "[swarm] anyone take this"}, 0.3},
		{"half of two skills", []string{"solidity", "cooking"}, task, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SkillScore(tt.skills, tt.task, "[swarm"); math.Abs(got-tt.want) > 0.001 {
				t.Errorf("SkillScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBudgetScore(t *testing.T) {
	p := NewProfile("w1")
	p.TasksCompleted = 10
	p.TotalEarned = 100 // avg 10 per task

	tests := []struct {
		name  string
		value float64
		want  float64
	}{
		{"sweet spot", 10, 0.8},
		{"low edge of sweet spot", 5, 0.8},
		{"high edge of sweet spot", 20, 0.8},
		{"acceptable low", 3, 0.5},
		{"acceptable high", 40, 0.5},
		{"poor fit tiny", 1, 0.2},
		{"poor fit huge", 100, 0.2},
		{"zero value neutral", 0, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BudgetScore(p, tt.value); got != tt.want {
				t.Errorf("BudgetScore(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}

	if got := BudgetScore(NewProfile("new"), 10); got != 0.5 {
		t.Errorf("BudgetScore(no history) = %v, want neutral 0.5", got)
	}
}

func TestProfileAccessors(t *testing.T) {
	p := NewProfile("w1")
	if p.CompletionRate() != 0.5 || p.Reliability() != 0.5 {
		t.Errorf("new profile rates = %v/%v, want neutral 0.5", p.CompletionRate(), p.Reliability())
	}
	if p.CategoryStrength("dev") != 0 {
		t.Errorf("CategoryStrength with no record = %v, want 0", p.CategoryStrength("dev"))
	}
	if p.NetworkExperience("base") != 0.1 {
		t.Errorf("NetworkExperience with no record = %v, want 0.1", p.NetworkExperience("base"))
	}

	p.RecordAttempt("dev", "base")
	p.RecordAttempt("dev", "base")
	p.RecordCompletion("dev", 10)
	p.AvgRatingReceived = 80

	if got := p.CompletionRate(); got != 0.5 {
		t.Errorf("CompletionRate = %v, want 0.5", got)
	}
	// 0.6*0.5 + 0.4*0.8 = 0.62
	if got := p.Reliability(); math.Abs(got-0.62) > 0.001 {
		t.Errorf("Reliability = %v, want 0.62", got)
	}
	if got := p.CategoryStrength("dev"); got != 0.5 {
		t.Errorf("CategoryStrength = %v, want 0.5", got)
	}
	wantExp := math.Min(1, 0.3+0.3*math.Log(3))
	if got := p.NetworkExperience("base"); math.Abs(got-wantExp) > 0.001 {
		t.Errorf("NetworkExperience = %v, want %v", got, wantExp)
	}
}

func TestScore_WeightedComposite(t *testing.T) {
	cfg := DefaultConfig()
	p := NewProfile("w1")
	task := Task{Title: "solidity audit", Network: "base", Value: 0}

	// skill 1.0, reliability 0.5, category 0, network 0.1, budget 0.5:
	// 0.35 + 0.125 + 0 + 0.01 + 0.05 = 0.535.
	got := Score(p, []string{"solidity"}, task, cfg)
	if math.Abs(got-0.535) > 0.001 {
		t.Errorf("Score = %v, want 0.535", got)
	}

	// Nil profile behaves like an empty one.
	if nilGot := Score(nil, []string{"solidity"}, task, cfg); math.Abs(nilGot-got) > 0.001 {
		t.Errorf("Score(nil profile) = %v, want %v", nilGot, got)
	}
}

func TestScore_CategoryInferredFromText(t *testing.T) {
	cfg := DefaultConfig()
	p := NewProfile("w1")
	p.CategoryAttempts["verification"] = 4
	p.CategoryCompletions["verification"] = 4

	explicit := Score(p, nil, Task{Title: "check this", Category: "verification"}, cfg)
	inferred := Score(p, nil, Task{Title: "verification of a deployment"}, cfg)
	none := Score(p, nil, Task{Title: "unrelated chore"}, cfg)

	if math.Abs(explicit-inferred) > 0.001 {
		t.Errorf("inferred %v != explicit %v", inferred, explicit)
	}
	if inferred <= none {
		t.Errorf("inferred %v should exceed no-category %v", inferred, none)
	}
}

func TestLegacyScore(t *testing.T) {
	task := Task{Title: "Translate docs", Description: "english to spanish"}

	tests := []struct {
		name   string
		skills []string
		task   Task
		want   float64
	}{
		{"match", []string{"translate"}, task, 1.0},
		{"no partial credit in legacy", []string{"translation_services"}, task, 0.0},
		{"tagged floor", []string{"cooking"}, Task{Title: "[swarm] open task"}, 0.3},
		{"no skills floor", nil, task, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LegacyScore(tt.skills, tt.task, "[swarm"); got != tt.want {
				t.Errorf("LegacyScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBoostScore(t *testing.T) {
	tests := []struct {
		name       string
		base       float64
		composite  float64
		confidence float64
		want       float64
	}{
		{"zero confidence is neutral", 0.6, 95, 0, 0.6*0.85 + 0.5*0.15},
		{"full confidence high rep", 0.6, 100, 1, 0.6*0.85 + 1.0*0.15},
		{"full confidence low rep", 0.6, 0, 1, 0.6*0.85 + 0.0*0.15},
		{"neutral rep no effect direction", 0.6, 50, 1, 0.6*0.85 + 0.5*0.15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BoostScore(tt.base, tt.composite, tt.confidence, 0.15); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("BoostScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeightsValidate(t *testing.T) {
	if err := DefaultWeights().Validate(); err != nil {
		t.Errorf("default weights invalid: %v", err)
	}

	bad := Weights{Skill: 0.5, Reliability: 0.5, Category: 0.5}
	if err := bad.Validate(); err == nil {
		t.Error("weights not summing to 1 should fail validation")
	}

	negative := Weights{Skill: -0.1, Reliability: 0.6, Category: 0.2, Network: 0.2, Budget: 0.1}
	if err := negative.Validate(); err == nil {
		t.Error("negative weight should fail validation")
	}
}

func TestProfile_RecordRating(t *testing.T) {
	p := NewProfile("w1")

	p.RecordRating(80)
	p.RecordRating(60)
	if p.AvgRatingReceived != 70 {
		t.Errorf("avg rating = %f, want 70", p.AvgRatingReceived)
	}
	if p.RatingCount != 2 {
		t.Errorf("rating count = %d, want 2", p.RatingCount)
	}

	p.RecordRating(500) // clamped to 100
	if p.AvgRatingReceived != 80 {
		t.Errorf("avg rating = %f, want 80", p.AvgRatingReceived)
	}
}

func TestProfile_RecordFailure(t *testing.T) {
	p := NewProfile("w1")
	p.RecordAttempt("indexing", "mainnet")
	p.RecordFailure()
	if p.TasksFailed != 1 || p.TasksAttempted != 1 {
		t.Errorf("profile = %+v", p)
	}
}
