package coordinator

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hivemesh/swarmd/logging"
	"github.com/hivemesh/swarmd/marketplace"
	"github.com/hivemesh/swarmd/match"
	"github.com/hivemesh/swarmd/skills"
	"github.com/hivemesh/swarmd/swarmstate"
)

// Common errors.
var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrNoBrowser     = errors.New("marketplace browser required")
	ErrNoState       = errors.New("state client required")
)

// IdleState is the worker state eligible for assignment.
const IdleState = "idle"

// Config holds coordinator tunables.
type Config struct {
	// Identity is the coordinator's own marketplace identity. Candidates
	// it posted itself are never assigned.
	Identity string `json:"identity" toml:"identity"`

	// BrowseLimit caps candidates fetched per cycle.
	// Default: 20
	BrowseLimit int `json:"browse_limit" toml:"browse_limit"`

	// MaxAssignments caps claims per cycle.
	// Default: 5
	MaxAssignments int `json:"max_assignments" toml:"max_assignments"`

	// StaleAfter is the heartbeat staleness cutoff for the summary.
	// Default: 10m
	StaleAfter time.Duration `json:"stale_after" toml:"stale_after"`

	// SystemWorkers are never assigned marketplace tasks.
	SystemWorkers []string `json:"system_workers" toml:"system_workers"`

	// Alternatives is how many runner-up matches to record per
	// assignment. Default: 3
	Alternatives int `json:"alternatives" toml:"alternatives"`

	// Match holds the scoring tunables.
	Match match.Config `json:"match" toml:"match"`

	// DryRun computes everything but writes nothing.
	DryRun bool `json:"dry_run" toml:"dry_run"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BrowseLimit:    20,
		MaxAssignments: 5,
		StaleAfter:     10 * time.Minute,
		Alternatives:   3,
		Match:          match.DefaultConfig(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.BrowseLimit < 0 {
		return fmt.Errorf("%w: negative browse limit", ErrInvalidConfig)
	}
	if c.MaxAssignments < 0 {
		return fmt.Errorf("%w: negative max assignments", ErrInvalidConfig)
	}
	if c.Alternatives < 0 {
		return fmt.Errorf("%w: negative alternatives", ErrInvalidConfig)
	}
	return c.Match.Validate()
}

// Deps are the coordinator's collaborators.
type Deps struct {
	// State is the shared swarm-state client. Required.
	State *swarmstate.Client

	// Market supplies task candidates. Required.
	Market marketplace.Browser

	// Skills holds worker capability profiles. Optional; without it all
	// workers score the no-skills floor on the skill factor.
	Skills *skills.Registry

	// Logger for cycle events.
	Logger *logging.Logger
}

// Coordinator decides which worker gets which task.
type Coordinator struct {
	cfg    Config
	state  *swarmstate.Client
	market marketplace.Browser
	skills *skills.Registry
	log    *logging.Logger

	mu         sync.RWMutex
	profiles   map[string]*match.Profile
	reputation map[string]match.RepScore
}

// New creates a coordinator.
func New(cfg Config, deps Deps) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.State == nil {
		return nil, ErrNoState
	}
	if deps.Market == nil {
		return nil, ErrNoBrowser
	}

	log := deps.Logger
	if log == nil {
		log = logging.New()
	}

	return &Coordinator{
		cfg:        cfg,
		state:      deps.State,
		market:     deps.Market,
		skills:     deps.Skills,
		log:        log.WithComponent("coordinator"),
		profiles:   make(map[string]*match.Profile),
		reputation: make(map[string]match.RepScore),
	}, nil
}

// SetProfiles replaces the performance profiles used for scoring.
func (c *Coordinator) SetProfiles(profiles map[string]*match.Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profiles = make(map[string]*match.Profile, len(profiles))
	for name, p := range profiles {
		c.profiles[name] = p
	}
}

// SetReputation replaces the reputation scores applied as ranking boosts.
// Called by the reputation refresh cycle.
func (c *Coordinator) SetReputation(scores map[string]match.RepScore) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reputation = make(map[string]match.RepScore, len(scores))
	for name, s := range scores {
		c.reputation[name] = s
	}
}

// Reputation returns the reputation scores currently applied as
// ranking boosts.
func (c *Coordinator) Reputation() map[string]match.RepScore {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]match.RepScore, len(c.reputation))
	for name, s := range c.reputation {
		out[name] = s
	}
	return out
}

// Profiles returns the current performance profiles.
func (c *Coordinator) Profiles() map[string]*match.Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]*match.Profile, len(c.profiles))
	for name, p := range c.profiles {
		out[name] = p
	}
	return out
}

// Config returns the coordinator's configuration.
func (c *Coordinator) Config() Config {
	return c.cfg
}
