package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hivemesh/swarmd/coordinator"
	"github.com/hivemesh/swarmd/lifecycle"
	"github.com/hivemesh/swarmd/logging"
	"github.com/hivemesh/swarmd/reputation"
	"github.com/hivemesh/swarmd/swarmstate"
	"github.com/hivemesh/swarmd/telemetry"
)

// stateFile names the persisted runner state inside DataDir.
const stateFile = "runner_state.json"

// metricsLimit bounds the in-memory cycle metrics ring.
const metricsLimit = 100

// SourceFunc pulls the per-worker reputation sources. Each layer of a
// SourceSet is optional.
type SourceFunc func(ctx context.Context) (map[string]reputation.SourceSet, error)

// Deps are the runner's collaborators.
type Deps struct {
	// Coordinator runs coordination cycles. Required.
	Coordinator *coordinator.Coordinator

	// State reads the swarm summary for health reports. Required.
	State *swarmstate.Client

	// Roster, if set, enriches health reports with lifecycle assessment
	// and recommended actions.
	Roster *lifecycle.Roster

	// Sources, if set, feeds the reputation refresh cycle.
	Sources SourceFunc

	// Telemetry, if set, receives one event per finished cycle.
	Telemetry telemetry.Exporter

	// Logger for runner events.
	Logger *logging.Logger
}

// RunnerState is the persisted carry-over between runs.
type RunnerState struct {
	LastCoordination time.Time `json:"last_coordination"`
	LastReputation   time.Time `json:"last_reputation"`
	LastHealth       time.Time `json:"last_health"`

	TotalCycles      int `json:"total_cycles"`
	TotalAssignments int `json:"total_assignments"`
	TotalErrors      int `json:"total_errors"`

	ConsecutiveFailures int  `json:"consecutive_failures"`
	Paused              bool `json:"paused"`

	LastSnapshot string    `json:"last_snapshot,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CycleMetric records one finished cycle.
type CycleMetric struct {
	Kind        string        `json:"kind"` // coordination, reputation, health
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
	Assignments int           `json:"assignments,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// Status is the runner's externally visible state.
type Status struct {
	State  string      `json:"state"` // running or paused
	Config Config      `json:"config"`
	Runner RunnerState `json:"runner"`
}

// Runner owns the periodic cycles.
type Runner struct {
	cfg     Config
	coord   *coordinator.Coordinator
	state   *swarmstate.Client
	roster  *lifecycle.Roster
	sources SourceFunc
	repCfg  reputation.Config
	events  telemetry.Exporter
	log     *logging.Logger

	mu      sync.Mutex
	rstate  RunnerState
	metrics []CycleMetric

	now func() time.Time
}

// New creates a runner, restoring any persisted state from DataDir.
func New(cfg Config, deps Deps) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Coordinator == nil {
		return nil, fmt.Errorf("%w: coordinator required", ErrInvalidConfig)
	}
	if deps.State == nil {
		return nil, fmt.Errorf("%w: state client required", ErrInvalidConfig)
	}

	log := deps.Logger
	if log == nil {
		log = logging.New()
	}
	events := deps.Telemetry
	if events == nil {
		events = telemetry.NewNoopExporter()
	}

	r := &Runner{
		cfg:     cfg,
		coord:   deps.Coordinator,
		state:   deps.State,
		roster:  deps.Roster,
		sources: deps.Sources,
		repCfg:  reputation.DefaultConfig(),
		events:  events,
		log:     log.WithComponent("runner"),
		now:     time.Now,
	}

	if err := r.loadState(); err != nil {
		return nil, err
	}
	return r, nil
}

// Status reports the runner's state and configuration.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := "running"
	if r.rstate.Paused {
		state = "paused"
	}
	return Status{State: state, Config: r.cfg, Runner: r.rstate}
}

// Paused reports whether coordination is paused.
func (r *Runner) Paused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rstate.Paused
}

// Unpause clears the pause flag and the consecutive-failure counter.
func (r *Runner) Unpause() error {
	r.mu.Lock()
	r.rstate.Paused = false
	r.rstate.ConsecutiveFailures = 0
	r.mu.Unlock()

	r.log.Info("runner unpaused", nil)
	return r.SaveState()
}

// Metrics returns the recent cycle metrics, oldest first.
func (r *Runner) Metrics() []CycleMetric {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]CycleMetric, len(r.metrics))
	copy(out, r.metrics)
	return out
}

func (r *Runner) recordMetric(m CycleMetric) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.metrics = append(r.metrics, m)
	if len(r.metrics) > metricsLimit {
		r.metrics = r.metrics[len(r.metrics)-metricsLimit:]
	}
	r.rstate.TotalCycles++
	r.rstate.TotalAssignments += m.Assignments
	if m.Error != "" {
		r.rstate.TotalErrors++
	}
}

func (r *Runner) statePath() string {
	return filepath.Join(r.cfg.DataDir, stateFile)
}

// SaveState persists the runner state to DataDir.
func (r *Runner) SaveState() error {
	r.mu.Lock()
	r.rstate.UpdatedAt = r.now()
	data, err := json.MarshalIndent(r.rstate, "", "  ")
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshal runner state: %w", err)
	}

	if err := os.MkdirAll(r.cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(r.statePath(), data, 0o644); err != nil {
		return fmt.Errorf("write runner state: %w", err)
	}
	return nil
}

// loadState restores persisted state; a missing file starts fresh.
func (r *Runner) loadState() error {
	data, err := os.ReadFile(r.statePath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read runner state: %w", err)
	}

	var st RunnerState
	if err := json.Unmarshal(data, &st); err != nil {
		r.log.Warn("corrupt runner state, starting fresh", map[string]interface{}{
			"path": r.statePath(),
		})
		return nil
	}

	r.mu.Lock()
	r.rstate = st
	r.mu.Unlock()
	return nil
}
