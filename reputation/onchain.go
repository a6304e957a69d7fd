package reputation

import (
	"math"
	"time"
)

// Attestation is a single timestamped, typed, scored trust signal from the
// on-chain registry.
type Attestation struct {
	Type         string    `json:"type"`
	Quadrant     string    `json:"quadrant"`
	Score        float64   `json:"score"`
	Evaluator    string    `json:"evaluator"`
	Timestamp    time.Time `json:"timestamp"`
	EvidenceHash string    `json:"evidence_hash,omitempty"`
	ID           int64     `json:"id,omitempty"`
}

// OnChain is the aggregated on-chain layer for one worker.
type OnChain struct {
	Address string `json:"address,omitempty"`
	Count   int    `json:"count"`

	// Time-weighted averages retained for reporting.
	TypeAverages     map[string]float64 `json:"type_averages,omitempty"`
	QuadrantAverages map[string]float64 `json:"quadrant_averages,omitempty"`

	Composite  float64 `json:"composite"`
	Confidence float64 `json:"confidence"`
}

// weighted accumulates a weighted average.
type weighted struct {
	sum    float64
	weight float64
}

// ComputeOnChain aggregates attestations with exponential time decay.
//
// Each attestation's weight is exp(-ln2 * age / half-life), so an attestation
// one half-life old counts half as much as a fresh one. A zero timestamp is
// treated as fresh. Per-type and per-quadrant weighted averages are
// retained; the composite is the unweighted mean of the per-type averages,
// neutral 50 with no attestations. Confidence grows logarithmically with
// attestation count.
func ComputeOnChain(attestations []Attestation, cfg Config, now time.Time) OnChain {
	rep := OnChain{Count: len(attestations)}
	if len(attestations) == 0 {
		rep.Composite = 50.0
		return rep
	}

	halfLife := math.Max(cfg.HalfLife.Seconds(), 1)
	byType := make(map[string]*weighted)
	byQuadrant := make(map[string]*weighted)

	for _, a := range attestations {
		var age float64
		if !a.Timestamp.IsZero() {
			age = math.Max(0, now.Sub(a.Timestamp).Seconds())
		}
		w := math.Exp(-math.Ln2 * age / halfLife)

		acc := byType[a.Type]
		if acc == nil {
			acc = &weighted{}
			byType[a.Type] = acc
		}
		acc.sum += a.Score * w
		acc.weight += w

		acc = byQuadrant[a.Quadrant]
		if acc == nil {
			acc = &weighted{}
			byQuadrant[a.Quadrant] = acc
		}
		acc.sum += a.Score * w
		acc.weight += w
	}

	rep.TypeAverages = make(map[string]float64, len(byType))
	for typ, acc := range byType {
		if acc.weight > 0 {
			rep.TypeAverages[typ] = acc.sum / acc.weight
		}
	}
	rep.QuadrantAverages = make(map[string]float64, len(byQuadrant))
	for q, acc := range byQuadrant {
		if acc.weight > 0 {
			rep.QuadrantAverages[q] = acc.sum / acc.weight
		}
	}

	if len(rep.TypeAverages) > 0 {
		var total float64
		for _, avg := range rep.TypeAverages {
			total += avg
		}
		rep.Composite = total / float64(len(rep.TypeAverages))
	} else {
		rep.Composite = 50.0
	}

	rep.Confidence = math.Min(1, 0.1+0.5*math.Log(float64(len(attestations))+1)/math.Log(20))
	return rep
}

// Score returns the composite clamped to [0,100].
func (o OnChain) Score() float64 {
	return clamp100(o.Composite)
}
