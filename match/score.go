package match

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Task is the candidate view the scorer needs.
type Task struct {
	Title       string
	Description string
	Category    string
	Network     string
	Value       float64
}

// Weights are the five scoring factor weights. They must be non-negative
// and sum to 1.
type Weights struct {
	Skill       float64 `json:"skill" toml:"skill"`
	Reliability float64 `json:"reliability" toml:"reliability"`
	Category    float64 `json:"category" toml:"category"`
	Network     float64 `json:"network" toml:"network"`
	Budget      float64 `json:"budget" toml:"budget"`
}

// DefaultWeights returns the standard factor split.
func DefaultWeights() Weights {
	return Weights{
		Skill:       0.35,
		Reliability: 0.25,
		Category:    0.20,
		Network:     0.10,
		Budget:      0.10,
	}
}

// Validate checks that weights are non-negative and sum to 1.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"skill": w.Skill, "reliability": w.Reliability, "category": w.Category,
		"network": w.Network, "budget": w.Budget,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s must be non-negative", name)
		}
	}
	sum := w.Skill + w.Reliability + w.Category + w.Network + w.Budget
	if math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("weights must sum to 1, got %g", sum)
	}
	return nil
}

// Config holds the matching tunables.
type Config struct {
	Weights Weights `json:"weights" toml:"weights"`

	// SwarmTag marks tasks any worker may take; tagged tasks get a 0.3
	// skill-score floor even without a keyword match.
	SwarmTag string `json:"swarm_tag" toml:"swarm_tag"`

	// ReputationWeight is the blend factor of the reputation boost.
	ReputationWeight float64 `json:"reputation_weight" toml:"reputation_weight"`

	// MinScore excludes workers scoring below this floor from rankings.
	MinScore float64 `json:"min_score" toml:"min_score"`

	// Legacy selects pure skill-overlap scoring.
	Legacy bool `json:"legacy" toml:"legacy"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Weights:          DefaultWeights(),
		SwarmTag:         "[swarm",
		ReputationWeight: 0.15,
		MinScore:         0.01,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if c.ReputationWeight < 0 || c.ReputationWeight > 1 {
		return errors.New("reputation weight must be in [0,1]")
	}
	if c.MinScore < 0 || c.MinScore > 1 {
		return errors.New("min score must be in [0,1]")
	}
	return nil
}

// taskText lowercases the searchable task text.
func taskText(task Task) string {
	return strings.ToLower(task.Title + " " + task.Description)
}

// SkillScore measures keyword overlap between a worker's skills and the
// task text.
//
// Each skill matches fully when its raw or space-separated form appears in
// the text, and at half credit when any of its significant words (longer
// than 3 characters) appears as a standalone word. With no matches at all,
// swarm-tagged tasks still earn 0.3; a worker with no skills data earns a
// 0.1 floor.
func SkillScore(skills []string, task Task, swarmTag string) float64 {
	text := taskText(task)
	if len(skills) == 0 {
		return 0.1
	}

	words := make(map[string]bool)
	for _, w := range strings.Fields(text) {
		words[w] = true
	}

	var matches float64
	for _, skill := range skills {
		lower := strings.ToLower(skill)
		spaced := strings.NewReplacer("_", " ", "-", " ").Replace(lower)
		if strings.Contains(text, lower) || strings.Contains(text, spaced) {
			matches++
			continue
		}
		for _, word := range strings.Fields(spaced) {
			if len(word) > 3 && words[word] {
				matches += 0.5
				break
			}
		}
	}

	if matches == 0 {
		if swarmTag != "" && strings.Contains(text, swarmTag) {
			return 0.3
		}
		return 0
	}
	return math.Min(1, matches/float64(len(skills)))
}

// BudgetScore rates how well a candidate's value fits the worker's earning
// history: the ratio of task value to the worker's average earned value per
// completed task. Neutral 0.5 with no history or no value.
func BudgetScore(p *Profile, value float64) float64 {
	if value <= 0 || p == nil || p.TotalEarned <= 0 {
		return 0.5
	}
	completed := p.TasksCompleted
	if completed < 1 {
		completed = 1
	}
	avg := p.TotalEarned / float64(completed)
	ratio := value / math.Max(avg, 0.01)

	switch {
	case ratio >= 0.5 && ratio <= 2.0:
		return 0.8
	case ratio >= 0.2 && ratio <= 5.0:
		return 0.5
	default:
		return 0.2
	}
}

// categoryScore is the worker's track record in the task's category. With
// no explicit category, the strongest category mentioned in the task text
// is used.
func categoryScore(p *Profile, task Task, text string) float64 {
	if task.Category != "" {
		return p.CategoryStrength(task.Category)
	}
	for category := range p.CategoryAttempts {
		spaced := strings.ReplaceAll(category, "_", " ")
		if strings.Contains(text, category) || strings.Contains(text, spaced) {
			return p.CategoryStrength(category)
		}
	}
	return 0
}

// Score computes the five-factor composite in [0,1] for one worker and
// task.
func Score(p *Profile, skills []string, task Task, cfg Config) float64 {
	if p == nil {
		p = NewProfile("")
	}
	text := taskText(task)

	total := cfg.Weights.Skill*SkillScore(skills, task, cfg.SwarmTag) +
		cfg.Weights.Reliability*p.Reliability() +
		cfg.Weights.Category*categoryScore(p, task, text) +
		cfg.Weights.Network*p.NetworkExperience(task.Network) +
		cfg.Weights.Budget*BudgetScore(p, task.Value)

	return math.Min(1, total)
}

// LegacyScore is the historical skill-only match: full-keyword overlap
// ratio, 0.3 for swarm-tagged tasks with no overlap, 0.1 floor with no
// skills data.
func LegacyScore(skills []string, task Task, swarmTag string) float64 {
	if len(skills) == 0 {
		return 0.1
	}
	text := taskText(task)

	var matches int
	for _, skill := range skills {
		if strings.Contains(text, strings.ToLower(skill)) {
			matches++
		}
	}
	if matches == 0 {
		if swarmTag != "" && strings.Contains(text, swarmTag) {
			return 0.3
		}
		return 0
	}
	return math.Min(1, float64(matches)/float64(len(skills)))
}

// BoostScore blends a base match score with a unified reputation composite
// (0-100) dampened by its confidence:
//
//	effective = 0.5 + (composite/100 - 0.5) * confidence
//	boosted   = base*(1-weight) + effective*weight
//
// Zero confidence leaves the effective reputation neutral, so low-data
// workers are neither rewarded nor punished.
func BoostScore(base, composite, confidence, weight float64) float64 {
	effective := 0.5 + (composite/100.0-0.5)*confidence
	boosted := base*(1-weight) + effective*weight
	return math.Max(0, math.Min(1, boosted))
}
