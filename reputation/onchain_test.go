package reputation

import (
	"math"
	"testing"
	"time"
)

var repNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func TestComputeOnChain_NoAttestations(t *testing.T) {
	rep := ComputeOnChain(nil, DefaultConfig(), repNow)
	if rep.Composite != 50.0 {
		t.Errorf("Composite = %v, want neutral 50", rep.Composite)
	}
	if rep.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", rep.Confidence)
	}
}

func TestComputeOnChain_SingleAttestation(t *testing.T) {
	atts := []Attestation{
		{Type: "skillful", Quadrant: "a2h", Score: 85, Timestamp: repNow},
	}
	rep := ComputeOnChain(atts, DefaultConfig(), repNow)

	if math.Abs(rep.Composite-85) > 0.001 {
		t.Errorf("Composite = %v, want ~85", rep.Composite)
	}
	if rep.Confidence <= 0 {
		t.Errorf("Confidence = %v, want > 0", rep.Confidence)
	}
	if got := rep.TypeAverages["skillful"]; math.Abs(got-85) > 0.001 {
		t.Errorf("TypeAverages[skillful] = %v, want 85", got)
	}
	if got := rep.QuadrantAverages["a2h"]; math.Abs(got-85) > 0.001 {
		t.Errorf("QuadrantAverages[a2h] = %v, want 85", got)
	}
}

func TestComputeOnChain_TimeDecay(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HalfLife = 90 * 24 * time.Hour

	// A fresh 90 and a one-half-life-old 30 of the same type: the old one
	// counts half as much. Expected: (90*1 + 30*0.5) / 1.5 = 70.
	atts := []Attestation{
		{Type: "helpful", Score: 90, Timestamp: repNow},
		{Type: "helpful", Score: 30, Timestamp: repNow.Add(-cfg.HalfLife)},
	}
	rep := ComputeOnChain(atts, cfg, repNow)

	if math.Abs(rep.Composite-70) > 0.01 {
		t.Errorf("Composite = %v, want ~70", rep.Composite)
	}
}

func TestComputeOnChain_ZeroTimestampTreatedFresh(t *testing.T) {
	atts := []Attestation{
		{Type: "helpful", Score: 60},
		{Type: "helpful", Score: 80, Timestamp: repNow},
	}
	rep := ComputeOnChain(atts, DefaultConfig(), repNow)

	// Both at full weight: plain average.
	if math.Abs(rep.Composite-70) > 0.001 {
		t.Errorf("Composite = %v, want 70", rep.Composite)
	}
}

func TestComputeOnChain_CompositeIsMeanOfTypeAverages(t *testing.T) {
	atts := []Attestation{
		{Type: "skillful", Score: 80, Timestamp: repNow},
		{Type: "skillful", Score: 60, Timestamp: repNow},
		{Type: "reliable", Score: 40, Timestamp: repNow},
	}
	rep := ComputeOnChain(atts, DefaultConfig(), repNow)

	// skillful avg 70, reliable avg 40, composite mean 55.
	if math.Abs(rep.Composite-55) > 0.001 {
		t.Errorf("Composite = %v, want 55", rep.Composite)
	}
}

func TestComputeOnChain_ConfidenceGrowsWithCount(t *testing.T) {
	cfg := DefaultConfig()
	var prev float64
	for _, n := range []int{1, 5, 20, 100} {
		atts := make([]Attestation, n)
		for i := range atts {
			atts[i] = Attestation{Type: "helpful", Score: 50, Timestamp: repNow}
		}
		rep := ComputeOnChain(atts, cfg, repNow)
		if rep.Confidence <= prev {
			t.Errorf("Confidence(%d) = %v, want > %v", n, rep.Confidence, prev)
		}
		if rep.Confidence > 1 {
			t.Errorf("Confidence(%d) = %v, want <= 1", n, rep.Confidence)
		}
		prev = rep.Confidence
	}
}
