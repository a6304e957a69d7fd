package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hivemesh/swarmd/lifecycle"
	"github.com/hivemesh/swarmd/logging"
	"github.com/hivemesh/swarmd/reputation"
	"github.com/hivemesh/swarmd/runner"
	"github.com/hivemesh/swarmd/skills"
)

func TestBuild_SeedsReputationAndRoster(t *testing.T) {
	dir := t.TempDir()

	unified := reputation.ComputeAll(map[string]reputation.SourceSet{
		"worker-1": {Transactional: &reputation.Transactional{
			Worker:               "worker-1",
			AvgRatingReceived:    4.5,
			TotalRatingsReceived: 12,
		}},
	}, reputation.DefaultConfig())
	if _, err := reputation.SaveSnapshot(unified, filepath.Join(dir, "reputation"), time.Now()); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	cfg := runner.DefaultConfig()
	cfg.Identity = "coordinator-1"
	cfg.DataDir = dir
	cfg.Workers = []lifecycle.WorkerSpec{
		{Name: "worker-1", Tier: lifecycle.TierCore, CreditBalance: 100},
		{Name: "worker-2", Tier: lifecycle.TierUser},
	}

	a, err := build(cfg, false, logging.New())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer a.close()

	if a.roster == nil {
		t.Fatal("expected a roster built from the config worker specs")
	}
	if got := len(a.roster.Workers()); got != 2 {
		t.Fatalf("roster workers = %d, want 2", got)
	}

	rep, ok := a.coord.Reputation()["worker-1"]
	if !ok {
		t.Fatal("expected worker-1 ranking boost seeded from the snapshot")
	}
	if rep.Composite <= 0 {
		t.Fatalf("seeded composite = %v, want > 0", rep.Composite)
	}
}

func TestBuild_NoSnapshotNoRoster(t *testing.T) {
	cfg := runner.DefaultConfig()
	cfg.DataDir = t.TempDir()

	a, err := build(cfg, false, logging.New())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer a.close()

	if a.roster != nil {
		t.Fatal("expected no roster without worker specs")
	}
	if n := len(a.coord.Reputation()); n != 0 {
		t.Fatalf("reputation entries = %d, want 0", n)
	}
}

func TestRunSkillSearch(t *testing.T) {
	dir := t.TempDir()

	reg := skills.NewRegistry()
	reg.Set(skills.Profile{
		Worker:      "worker-1",
		Skills:      []string{"indexing", "etl"},
		Description: "pipeline specialist",
	}, time.Now())
	reg.Set(skills.Profile{
		Worker: "worker-2",
		Skills: []string{"proofs"},
	}, time.Now())
	if err := reg.Save(filepath.Join(dir, "skills.json")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	cfg := runner.DefaultConfig()
	cfg.DataDir = dir
	a, err := build(cfg, false, logging.New())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer a.close()

	if err := runSkillSearch(a, []string{"etl", "pipelines"}, true); err != nil {
		t.Fatalf("runSkillSearch: %v", err)
	}
	if err := runSkillSearch(a, nil, false); err == nil {
		t.Fatal("expected an error for a missing query")
	}
}

func TestReputationSources_DerivedFromProfiles(t *testing.T) {
	cfg := runner.DefaultConfig()
	cfg.DataDir = t.TempDir()

	a, err := build(cfg, false, logging.New())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer a.close()

	a.coord.RecordCompletion("worker-1", "indexing", 25)
	a.coord.RecordCompletion("worker-1", "indexing", 30)
	a.coord.RecordFailure("worker-1")
	a.coord.RecordRating("worker-1", 80)
	a.coord.RecordCompletion("worker-2", "etl", 10)

	sets, err := reputationSources(a.coord)(context.Background())
	if err != nil {
		t.Fatalf("sources: %v", err)
	}
	if len(sets) != 2 {
		t.Fatalf("source sets = %d, want 2", len(sets))
	}

	set, ok := sets["worker-1"]
	if !ok {
		t.Fatal("missing worker-1 source set")
	}
	if set.OffChain == nil {
		t.Fatal("expected an off-chain layer from the performance profile")
	}
	if set.Transactional == nil {
		t.Fatal("expected a transactional layer once a rating was recorded")
	}
	if set.Transactional.TotalRatingsReceived != 1 {
		t.Fatalf("ratings received = %d, want 1", set.Transactional.TotalRatingsReceived)
	}

	// No ratings recorded for worker-2, so only the performance layer.
	if sets["worker-2"].Transactional != nil {
		t.Fatal("unexpected transactional layer for unrated worker")
	}
}
