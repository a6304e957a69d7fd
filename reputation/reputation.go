package reputation

import (
	"errors"
	"time"
)

// Tier is a coarse reputation bucket derived from the composite score.
type Tier string

const (
	TierDiamond Tier = "diamond"
	TierGold    Tier = "gold"
	TierSilver  Tier = "silver"
	TierBronze  Tier = "bronze"
	TierUnknown Tier = "unknown"
)

// ClassifyTier buckets a 0-100 score.
func ClassifyTier(score float64) Tier {
	switch {
	case score >= 81:
		return TierDiamond
	case score >= 61:
		return TierGold
	case score >= 31:
		return TierSilver
	case score >= 0:
		return TierBronze
	default:
		return TierUnknown
	}
}

// Source names a reputation layer.
const (
	SourceOnChain       = "on_chain"
	SourceOffChain      = "off_chain"
	SourceTransactional = "transactional"
)

// Config holds the fusion tunables.
type Config struct {
	// HalfLife is the exponential decay half-life for attestation weights.
	HalfLife time.Duration `json:"half_life" toml:"half_life"`

	// Base fusion weights per layer. Renormalized over present sources.
	OnChainWeight       float64 `json:"on_chain_weight" toml:"on_chain_weight"`
	OffChainWeight      float64 `json:"off_chain_weight" toml:"off_chain_weight"`
	TransactionalWeight float64 `json:"transactional_weight" toml:"transactional_weight"`

	// ConfidenceBoost scales each present source's weight by
	// (0.5 + 0.5*confidence) before renormalizing, when at least two
	// sources are present.
	ConfidenceBoost bool `json:"confidence_boost" toml:"confidence_boost"`

	// CategoryBreadth is the category count at which experience breadth
	// saturates in the off-chain score.
	CategoryBreadth int `json:"category_breadth" toml:"category_breadth"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		HalfLife:            90 * 24 * time.Hour,
		OnChainWeight:       0.30,
		OffChainWeight:      0.40,
		TransactionalWeight: 0.30,
		ConfidenceBoost:     true,
		CategoryBreadth:     5,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.HalfLife <= 0 {
		return errors.New("half life must be positive")
	}
	if c.OnChainWeight < 0 || c.OffChainWeight < 0 || c.TransactionalWeight < 0 {
		return errors.New("fusion weights must be non-negative")
	}
	if c.OnChainWeight+c.OffChainWeight+c.TransactionalWeight <= 0 {
		return errors.New("fusion weights must not all be zero")
	}
	if c.CategoryBreadth <= 0 {
		return errors.New("category breadth must be positive")
	}
	return nil
}

// baseWeight returns the configured base weight for a source name.
func (c Config) baseWeight(source string) float64 {
	switch source {
	case SourceOnChain:
		return c.OnChainWeight
	case SourceOffChain:
		return c.OffChainWeight
	case SourceTransactional:
		return c.TransactionalWeight
	default:
		return 0
	}
}

// clamp100 bounds a score to [0,100].
func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
