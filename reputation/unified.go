package reputation

// Unified is the fused reputation for one worker.
type Unified struct {
	Worker  string `json:"worker"`
	Address string `json:"address,omitempty"`

	// Per-layer scores (0-100) and confidences (0-1). Layers that did not
	// contribute stay at their neutral defaults.
	OnChainScore            float64 `json:"on_chain_score"`
	OffChainScore           float64 `json:"off_chain_score"`
	TransactionalScore      float64 `json:"transactional_score"`
	OnChainConfidence       float64 `json:"on_chain_confidence"`
	OffChainConfidence      float64 `json:"off_chain_confidence"`
	TransactionalConfidence float64 `json:"transactional_confidence"`

	Composite  float64 `json:"composite"`
	Confidence float64 `json:"confidence"`
	Tier       Tier    `json:"tier"`

	// Sources lists which layers contributed, in fixed order.
	Sources []string `json:"sources"`

	// WeightsUsed records the renormalized per-source weights.
	WeightsUsed map[string]float64 `json:"weights_used,omitempty"`

	// Detail carried through for reporting.
	TypeScores        map[string]float64 `json:"type_scores,omitempty"`
	CategoryStrengths map[string]float64 `json:"category_strengths,omitempty"`
}

// SourceSet bundles the optional layers for one worker. Nil fields are
// absent sources.
type SourceSet struct {
	OnChain       *OnChain
	OffChain      *OffChain
	Transactional *Transactional
}

// ComputeUnified fuses the available layers into one composite.
//
// Base weights are taken from cfg and renormalized over the present
// sources. With confidence boost enabled and at least two sources present,
// each source's weight is first scaled by (0.5 + 0.5*confidence). The
// composite is the weighted sum of layer scores clamped to [0,100]; the
// effective confidence is the weighted sum of layer confidences. With no
// sources at all the result is neutral: 50, zero confidence, silver tier.
func ComputeUnified(worker string, onChain *OnChain, offChain *OffChain, tx *Transactional, cfg Config) Unified {
	u := Unified{
		Worker:             worker,
		OnChainScore:       50.0,
		OffChainScore:      50.0,
		TransactionalScore: 50.0,
	}

	scores := make(map[string]float64)
	confidences := make(map[string]float64)

	if onChain != nil {
		u.OnChainScore = onChain.Score()
		u.OnChainConfidence = onChain.Confidence
		u.Address = onChain.Address
		u.TypeScores = onChain.TypeAverages
		scores[SourceOnChain] = u.OnChainScore
		confidences[SourceOnChain] = u.OnChainConfidence
		u.Sources = append(u.Sources, SourceOnChain)
	}
	if offChain != nil {
		u.OffChainScore = offChain.Score()
		u.OffChainConfidence = offChain.Confidence()
		u.CategoryStrengths = offChain.CategoryStrengths
		scores[SourceOffChain] = u.OffChainScore
		confidences[SourceOffChain] = u.OffChainConfidence
		u.Sources = append(u.Sources, SourceOffChain)
	}
	if tx != nil {
		u.TransactionalScore = tx.Score()
		u.TransactionalConfidence = tx.Confidence()
		scores[SourceTransactional] = u.TransactionalScore
		confidences[SourceTransactional] = u.TransactionalConfidence
		u.Sources = append(u.Sources, SourceTransactional)
	}

	if len(scores) == 0 {
		u.Composite = 50.0
		u.Tier = TierSilver
		return u
	}

	weights := make(map[string]float64, len(scores))
	if cfg.ConfidenceBoost && len(scores) > 1 {
		for source := range scores {
			weights[source] = cfg.baseWeight(source) * (0.5 + 0.5*confidences[source])
		}
	} else {
		for source := range scores {
			weights[source] = cfg.baseWeight(source)
		}
	}

	var total float64
	for _, w := range weights {
		total += w
	}
	if total > 0 {
		for source := range weights {
			weights[source] /= total
		}
	} else {
		equal := 1.0 / float64(len(scores))
		for source := range weights {
			weights[source] = equal
		}
	}
	u.WeightsUsed = weights

	var composite, confidence float64
	for source, score := range scores {
		composite += score * weights[source]
		confidence += confidences[source] * weights[source]
	}
	u.Composite = clamp100(composite)
	u.Confidence = confidence
	u.Tier = ClassifyTier(u.Composite)

	return u
}

// ComputeAll fuses every worker in the set.
func ComputeAll(sources map[string]SourceSet, cfg Config) map[string]Unified {
	out := make(map[string]Unified, len(sources))
	for worker, set := range sources {
		out[worker] = ComputeUnified(worker, set.OnChain, set.OffChain, set.Transactional, cfg)
	}
	return out
}
