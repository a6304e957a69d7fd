package skills

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Common errors.
var (
	ErrNotFound = errors.New("worker not found")
)

// Profile declares one worker's capabilities.
type Profile struct {
	// Worker is the profile owner's name.
	Worker string `json:"worker" toml:"worker"`

	// Skills are free-form capability keywords matched against task text.
	Skills []string `json:"skills" toml:"skills"`

	// Description is a longer capability statement used for discovery
	// search only, never for match scoring.
	Description string `json:"description,omitempty" toml:"description"`

	// Networks the worker operates on.
	Networks []string `json:"networks,omitempty" toml:"networks"`

	// UpdatedAt is when the profile last changed.
	UpdatedAt time.Time `json:"updated_at,omitempty" toml:"-"`
}

func (p Profile) normalized() Profile {
	out := p
	out.Skills = make([]string, 0, len(p.Skills))
	seen := make(map[string]bool)
	for _, s := range p.Skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out.Skills = append(out.Skills, s)
	}
	return out
}

// Registry holds skill profiles for all workers.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{profiles: make(map[string]Profile)}
}

// Set stores or replaces a worker's profile. Skills are lowercased and
// deduplicated.
func (r *Registry) Set(p Profile, now time.Time) error {
	if p.Worker == "" {
		return fmt.Errorf("worker name required")
	}
	p = p.normalized()
	p.UpdatedAt = now

	r.mu.Lock()
	r.profiles[p.Worker] = p
	r.mu.Unlock()
	return nil
}

// Get returns a worker's profile.
func (r *Registry) Get(worker string) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[worker]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrNotFound, worker)
	}
	return p, nil
}

// Remove deletes a worker's profile. Removing an unknown worker is not
// an error.
func (r *Registry) Remove(worker string) {
	r.mu.Lock()
	delete(r.profiles, worker)
	r.mu.Unlock()
}

// Workers returns all profiled workers, sorted by name.
func (r *Registry) Workers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SkillsByWorker returns the skills map the matching engine consumes.
func (r *Registry) SkillsByWorker() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]string, len(r.profiles))
	for name, p := range r.profiles {
		skills := make([]string, len(p.Skills))
		copy(skills, p.Skills)
		out[name] = skills
	}
	return out
}

// Save writes all profiles to a JSON file.
func (r *Registry) Save(path string) error {
	r.mu.RLock()
	profiles := make([]Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		profiles = append(profiles, p)
	}
	r.mu.RUnlock()

	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Worker < profiles[j].Worker })

	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal profiles: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write profiles: %w", err)
	}
	return nil
}

// Load reads profiles from a JSON file written by Save.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}

	var profiles []Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}

	r := NewRegistry()
	for _, p := range profiles {
		if p.Worker == "" {
			continue
		}
		r.profiles[p.Worker] = p.normalized()
	}
	return r, nil
}
