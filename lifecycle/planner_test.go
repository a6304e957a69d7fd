package lifecycle

import (
	"fmt"
	"testing"
)

func TestPlanStartupOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StartupBatchSize = 5

	var workers []*WorkerRecord
	for i := 0; i < 2; i++ {
		workers = append(workers, NewWorkerRecord(fmt.Sprintf("sys-%d", i), TierSystem))
	}
	workers = append(workers, NewWorkerRecord("core-0", TierCore))
	for i := 0; i < 12; i++ {
		workers = append(workers, NewWorkerRecord(fmt.Sprintf("user-%d", i), TierUser))
	}

	batches := PlanStartupOrder(workers, cfg)

	wantSizes := []int{2, 1, 5, 5, 2}
	if len(batches) != len(wantSizes) {
		t.Fatalf("batch count = %d, want %d (%v)", len(batches), len(wantSizes), batches)
	}
	for i, want := range wantSizes {
		if len(batches[i]) != want {
			t.Errorf("batch %d size = %d, want %d", i, len(batches[i]), want)
		}
	}

	// System workers lead, core next, then user chunks in roster order.
	if batches[0][0] != "sys-0" || batches[0][1] != "sys-1" {
		t.Errorf("system batch = %v", batches[0])
	}
	if batches[1][0] != "core-0" {
		t.Errorf("core batch = %v", batches[1])
	}
	if batches[2][0] != "user-0" || batches[4][1] != "user-11" {
		t.Errorf("user batches = %v %v %v", batches[2], batches[3], batches[4])
	}
}

func TestPlanStartupOrder_EmptyTiersSkipped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StartupBatchSize = 3

	workers := []*WorkerRecord{
		NewWorkerRecord("user-0", TierUser),
		NewWorkerRecord("user-1", TierUser),
	}

	batches := PlanStartupOrder(workers, cfg)
	if len(batches) != 1 {
		t.Fatalf("batch count = %d, want 1 (%v)", len(batches), batches)
	}
	if len(batches[0]) != 2 {
		t.Errorf("batch size = %d, want 2", len(batches[0]))
	}
}

func TestPlanStartupOrder_NoWorkers(t *testing.T) {
	batches := PlanStartupOrder(nil, DefaultConfig())
	if len(batches) != 0 {
		t.Errorf("batches = %v, want none", batches)
	}
}
