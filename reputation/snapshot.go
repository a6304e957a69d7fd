package reputation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// snapshotPrefix names snapshot files so the latest sorts last.
const snapshotPrefix = "reputation_snapshot_"

// Snapshot is a point-in-time picture of swarm reputation.
type Snapshot struct {
	GeneratedAt time.Time          `json:"generated_at"`
	WorkerCount int                `json:"worker_count"`
	Workers     map[string]Unified `json:"workers"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

// SaveSnapshot writes a timestamped snapshot file into dir and returns its
// path. The directory is created if needed.
func SaveSnapshot(reputations map[string]Unified, dir string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	snap := Snapshot{
		GeneratedAt: now,
		WorkerCount: len(reputations),
		Workers:     reputations,
		Leaderboard: Leaderboard(reputations, 0, 0),
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	path := filepath.Join(dir, snapshotPrefix+now.UTC().Format("20060102_150405")+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// LoadSnapshot reads one snapshot file.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", filepath.Base(path), err)
	}
	return &snap, nil
}

// LoadLatest returns the most recent snapshot in dir, or nil if there is
// none.
func LoadLatest(dir string) (*Snapshot, error) {
	matches, err := filepath.Glob(filepath.Join(dir, snapshotPrefix+"*.json"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	sort.Strings(matches)
	return LoadSnapshot(matches[len(matches)-1])
}

// TrendDirection classifies how a score moved across snapshots.
type TrendDirection string

const (
	TrendImproving    TrendDirection = "improving"
	TrendDeclining    TrendDirection = "declining"
	TrendStable       TrendDirection = "stable"
	TrendInsufficient TrendDirection = "insufficient_data"
)

// LayerTrend is the movement of one layer across snapshots.
type LayerTrend struct {
	Current   float64 `json:"current"`
	Delta     float64 `json:"delta"`
	Direction string  `json:"direction"` // up, down, flat
}

// Trend summarizes one worker's reputation movement, most recent snapshot
// against oldest.
type Trend struct {
	Worker    string         `json:"worker"`
	Direction TrendDirection `json:"direction"`
	Current   float64        `json:"current"`
	Delta     float64        `json:"delta"`
	Snapshots int            `json:"snapshots"`

	Layers map[string]LayerTrend `json:"layers,omitempty"`
}

// ComputeTrend compares a worker's scores across snapshots, most recent
// first. The composite moves at a ±5 threshold, layers at ±2. Fewer than
// two snapshots yields insufficient data.
func ComputeTrend(snapshots []*Snapshot, worker string) Trend {
	t := Trend{Worker: worker, Snapshots: len(snapshots), Direction: TrendInsufficient}
	if len(snapshots) < 2 {
		return t
	}

	score := func(snap *Snapshot) Unified {
		if snap == nil {
			return Unified{Composite: 50.0}
		}
		rep, ok := snap.Workers[worker]
		if !ok {
			return Unified{Composite: 50.0}
		}
		return rep
	}

	newest := score(snapshots[0])
	oldest := score(snapshots[len(snapshots)-1])

	t.Current = newest.Composite
	t.Delta = newest.Composite - oldest.Composite
	switch {
	case t.Delta > 5:
		t.Direction = TrendImproving
	case t.Delta < -5:
		t.Direction = TrendDeclining
	default:
		t.Direction = TrendStable
	}

	layers := map[string][2]float64{
		SourceOnChain:       {newest.OnChainScore, oldest.OnChainScore},
		SourceOffChain:      {newest.OffChainScore, oldest.OffChainScore},
		SourceTransactional: {newest.TransactionalScore, oldest.TransactionalScore},
	}
	t.Layers = make(map[string]LayerTrend, len(layers))
	for name, pair := range layers {
		delta := pair[0] - pair[1]
		direction := "flat"
		if delta > 2 {
			direction = "up"
		} else if delta < -2 {
			direction = "down"
		}
		t.Layers[name] = LayerTrend{Current: pair[0], Delta: delta, Direction: direction}
	}

	return t
}
