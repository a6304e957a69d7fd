package match

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Profile is one worker's task performance history.
type Profile struct {
	Worker string `json:"worker"`

	TasksCompleted     int     `json:"tasks_completed"`
	TasksAttempted     int     `json:"tasks_attempted"`
	TasksFailed        int     `json:"tasks_failed"`
	AvgCompletionHours float64 `json:"avg_completion_hours"`
	TotalEarned        float64 `json:"total_earned"`
	TotalSpent         float64 `json:"total_spent"`

	CategoryCompletions map[string]int `json:"category_completions,omitempty"`
	CategoryAttempts    map[string]int `json:"category_attempts,omitempty"`
	NetworkTasks        map[string]int `json:"network_tasks,omitempty"`

	AvgRatingReceived float64 `json:"avg_rating_received"`
	AvgRatingGiven    float64 `json:"avg_rating_given"`
	RatingCount       int     `json:"rating_count"`

	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// NewProfile creates an empty profile for a worker.
func NewProfile(worker string) *Profile {
	return &Profile{
		Worker:              worker,
		CategoryCompletions: make(map[string]int),
		CategoryAttempts:    make(map[string]int),
		NetworkTasks:        make(map[string]int),
	}
}

// CompletionRate is the fraction of attempted tasks completed, neutral 0.5
// for workers with no history.
func (p *Profile) CompletionRate() float64 {
	if p.TasksAttempted == 0 {
		return 0.5
	}
	return float64(p.TasksCompleted) / float64(p.TasksAttempted)
}

// Reliability blends completion rate (60%) with rating quality (40%), both
// in [0,1]. Neutral 0.5 for workers with no history.
func (p *Profile) Reliability() float64 {
	if p.TasksAttempted == 0 {
		return 0.5
	}
	rating := 0.5
	if p.AvgRatingReceived > 0 {
		rating = p.AvgRatingReceived / 100.0
	}
	return 0.6*p.CompletionRate() + 0.4*rating
}

// CategoryStrength is the completion ratio within one category; zero with
// no track record there.
func (p *Profile) CategoryStrength(category string) float64 {
	attempted := p.CategoryAttempts[category]
	if attempted == 0 {
		return 0
	}
	return float64(p.CategoryCompletions[category]) / float64(attempted)
}

// NetworkExperience is a saturating log-scale score for activity on one
// network; 0.1 floor with no activity.
func (p *Profile) NetworkExperience(network string) float64 {
	count := p.NetworkTasks[network]
	if count == 0 {
		return 0.1
	}
	return math.Min(1, 0.3+0.3*math.Log(float64(count)+1))
}

// RecordAttempt registers an attempted task in the aggregate and per-category
// counters.
func (p *Profile) RecordAttempt(category, network string) {
	p.TasksAttempted++
	if category != "" {
		if p.CategoryAttempts == nil {
			p.CategoryAttempts = make(map[string]int)
		}
		p.CategoryAttempts[category]++
	}
	if network != "" {
		if p.NetworkTasks == nil {
			p.NetworkTasks = make(map[string]int)
		}
		p.NetworkTasks[network]++
	}
}

// RecordCompletion registers a completed task and its earnings.
func (p *Profile) RecordCompletion(category string, earned float64) {
	p.TasksCompleted++
	p.TotalEarned += earned
	if category != "" {
		if p.CategoryCompletions == nil {
			p.CategoryCompletions = make(map[string]int)
		}
		p.CategoryCompletions[category]++
	}
}

// RecordFailure registers a failed task.
func (p *Profile) RecordFailure() {
	p.TasksFailed++
}

// RecordRating folds a received rating (0-100) into the running average.
func (p *Profile) RecordRating(rating float64) {
	if rating < 0 {
		rating = 0
	}
	if rating > 100 {
		rating = 100
	}
	total := p.AvgRatingReceived*float64(p.RatingCount) + rating
	p.RatingCount++
	p.AvgRatingReceived = total / float64(p.RatingCount)
}

// profileFile names one worker's persisted profile inside the profiles dir.
func profileFile(dir, worker string) string {
	return filepath.Join(dir, worker+".json")
}

// SaveProfiles writes each profile to <dir>/<worker>.json and returns the
// number saved. Individual write failures are collected, not fatal.
func SaveProfiles(dir string, profiles map[string]*Profile, now time.Time) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create profiles dir: %w", err)
	}

	var saved int
	var errs []string
	for worker, p := range profiles {
		if p == nil || worker == "" {
			continue
		}
		p.UpdatedAt = now
		data, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", worker, err))
			continue
		}
		if err := os.WriteFile(profileFile(dir, worker), data, 0o644); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", worker, err))
			continue
		}
		saved++
	}

	if len(errs) > 0 {
		return saved, fmt.Errorf("save profiles: %s", strings.Join(errs, "; "))
	}
	return saved, nil
}

// LoadProfiles reads every profile in dir. A missing directory yields an
// empty map; unreadable individual files are skipped.
func LoadProfiles(dir string) (map[string]*Profile, error) {
	profiles := make(map[string]*Profile)

	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return profiles, err
	}

	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var p Profile
		if err := json.Unmarshal(data, &p); err != nil {
			continue
		}
		if p.Worker == "" {
			p.Worker = strings.TrimSuffix(filepath.Base(path), ".json")
		}
		profiles[p.Worker] = &p
	}

	return profiles, nil
}
