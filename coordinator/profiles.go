package coordinator

import (
	"time"

	"github.com/hivemesh/swarmd/marketplace"
	"github.com/hivemesh/swarmd/match"
)

// recordAttempt updates the assigned worker's performance profile.
func (c *Coordinator) recordAttempt(worker string, candidate marketplace.Candidate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.profiles[worker]
	if !ok {
		p = match.NewProfile(worker)
		c.profiles[worker] = p
	}
	p.RecordAttempt(candidate.Category, candidate.Network)
}

// RecordCompletion credits a finished task to a worker's profile.
// Front ends call this when a worker reports a task outcome.
func (c *Coordinator) RecordCompletion(worker, category string, earned float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.profiles[worker]
	if !ok {
		p = match.NewProfile(worker)
		c.profiles[worker] = p
	}
	p.RecordCompletion(category, earned)
}

// RecordFailure counts a failed task against a worker's profile.
func (c *Coordinator) RecordFailure(worker string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.profiles[worker]
	if !ok {
		p = match.NewProfile(worker)
		c.profiles[worker] = p
	}
	p.RecordFailure()
}

// RecordRating adds a received rating to a worker's profile.
func (c *Coordinator) RecordRating(worker string, rating float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.profiles[worker]
	if !ok {
		p = match.NewProfile(worker)
		c.profiles[worker] = p
	}
	p.RecordRating(rating)
}

// SaveProfiles persists performance profiles to a directory.
func (c *Coordinator) SaveProfiles(dir string, now time.Time) (int, error) {
	return match.SaveProfiles(dir, c.Profiles(), now)
}

// LoadProfiles replaces profiles with those persisted in a directory.
func (c *Coordinator) LoadProfiles(dir string) error {
	profiles, err := match.LoadProfiles(dir)
	if err != nil {
		return err
	}
	c.SetProfiles(profiles)
	return nil
}
