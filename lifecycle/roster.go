package lifecycle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// WorkerSpec describes one worker at roster initialization.
type WorkerSpec struct {
	Name          string  `json:"name" toml:"name"`
	Tier          Tier    `json:"tier" toml:"tier"`
	CreditBalance float64 `json:"credit_balance" toml:"credit_balance"`
	GasBalance    float64 `json:"gas_balance" toml:"gas_balance"`
}

// Roster owns the lifecycle records of all workers in the swarm. All
// mutations go through Roster methods, which serialize writers.
type Roster struct {
	mu      sync.RWMutex
	byName  map[string]*WorkerRecord
	ordered []*WorkerRecord
	cfg     Config
}

// NewRoster creates a roster of workers in OFFLINE state.
func NewRoster(specs []WorkerSpec, cfg Config) (*Roster, error) {
	r := &Roster{
		byName: make(map[string]*WorkerRecord, len(specs)),
		cfg:    cfg,
	}
	for _, spec := range specs {
		if _, ok := r.byName[spec.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateWorker, spec.Name)
		}
		rec := NewWorkerRecord(spec.Name, spec.Tier)
		rec.CreditBalance = spec.CreditBalance
		rec.GasBalance = spec.GasBalance
		r.byName[spec.Name] = rec
		r.ordered = append(r.ordered, rec)
	}
	return r, nil
}

// Config returns the roster's lifecycle configuration.
func (r *Roster) Config() Config {
	return r.cfg
}

// Get returns a copy of one worker's record.
func (r *Roster) Get(name string) (*WorkerRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWorker, name)
	}
	return rec.Clone(), nil
}

// Workers returns copies of all records in roster order.
func (r *Roster) Workers() []*WorkerRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*WorkerRecord, len(r.ordered))
	for i, rec := range r.ordered {
		out[i] = rec.Clone()
	}
	return out
}

// ByState returns copies of all records currently in the given state.
func (r *Roster) ByState(state State) []*WorkerRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*WorkerRecord
	for _, rec := range r.ordered {
		if rec.State == state {
			out = append(out, rec.Clone())
		}
	}
	return out
}

// Available returns copies of all IDLE workers, the only ones eligible for
// task assignment.
func (r *Roster) Available() []*WorkerRecord {
	return r.ByState(StateIdle)
}

// Transition applies a state transition to one worker under the roster lock.
func (r *Roster) Transition(name string, reason Reason, now time.Time, details map[string]string) (*TransitionEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWorker, name)
	}
	return Transition(rec, reason, r.cfg, now, details)
}

// RecordHeartbeat stores a heartbeat timestamp for one worker.
func (r *Roster) RecordHeartbeat(name string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byName[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWorker, name)
	}
	RecordHeartbeat(rec, now)
	return nil
}

// UpdateBalance sets one worker's resource balances.
func (r *Roster) UpdateBalance(name string, credit, gas float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byName[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWorker, name)
	}
	UpdateBalance(rec, credit, gas)
	return nil
}

// Health assesses the fleet.
func (r *Roster) Health(now time.Time) Health {
	return AssessHealth(r.Workers(), r.cfg, now)
}

// Actions returns the prioritized recommended action list.
func (r *Roster) Actions(now time.Time) []Action {
	return RecommendActions(r.Workers(), r.cfg, now)
}

// snapshot is the durable roster format.
type snapshot struct {
	SavedAt     time.Time       `json:"saved_at"`
	WorkerCount int             `json:"worker_count"`
	Workers     []*WorkerRecord `json:"workers"`
}

// Save writes the roster to a JSON snapshot file. The parent directory is
// created if needed.
func (r *Roster) Save(path string) error {
	snap := snapshot{
		SavedAt: time.Now().UTC(),
		Workers: r.Workers(),
	}
	snap.WorkerCount = len(snap.Workers)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads a roster snapshot. A missing file yields an empty roster; a
// corrupt file yields an empty roster and the decode error so the caller can
// log it and start fresh.
func Load(path string, cfg Config) (*Roster, error) {
	r := &Roster{
		byName: make(map[string]*WorkerRecord),
		cfg:    cfg,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return r, err
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return r, fmt.Errorf("decode roster: %w", err)
	}

	for _, rec := range snap.Workers {
		if rec == nil || rec.Name == "" {
			continue
		}
		if !rec.State.Valid() {
			rec.State = StateOffline
		}
		if _, ok := r.byName[rec.Name]; ok {
			continue
		}
		r.byName[rec.Name] = rec
		r.ordered = append(r.ordered, rec)
	}

	return r, nil
}
