package marketplace

import (
	"context"
	"errors"
	"sync"
)

// Common errors.
var (
	ErrUnavailable = errors.New("marketplace unavailable")
)

// Candidate is one externally-sourced work item.
type Candidate struct {
	// ID uniquely identifies the item; claims are keyed by it.
	ID string `json:"id"`

	// Title and Description feed skill matching.
	Title       string `json:"title"`
	Description string `json:"description"`

	// Value is the reward for completing the item.
	Value float64 `json:"value"`

	// Category of the work, if the marketplace provides one.
	Category string `json:"category,omitempty"`

	// Network the item belongs to.
	Network string `json:"network,omitempty"`

	// OwnerID identifies who posted the item. The coordinator skips
	// items owned by its own identity.
	OwnerID string `json:"owner_id,omitempty"`
}

// Browser fetches open candidates from a marketplace.
type Browser interface {
	// Browse returns up to limit open candidates.
	// limit <= 0 means no limit.
	Browse(ctx context.Context, limit int) ([]Candidate, error)
}

// StaticBrowser serves a fixed candidate list. Useful for tests and
// single-shot dry runs against a known feed.
type StaticBrowser struct {
	mu         sync.RWMutex
	candidates []Candidate
	err        error
}

// NewStaticBrowser creates a browser over a fixed list.
func NewStaticBrowser(candidates []Candidate) *StaticBrowser {
	return &StaticBrowser{candidates: candidates}
}

// Browse returns the configured candidates, truncated to limit.
func (b *StaticBrowser) Browse(ctx context.Context, limit int) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.err != nil {
		return nil, b.err
	}

	out := make([]Candidate, len(b.candidates))
	copy(out, b.candidates)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SetCandidates replaces the candidate list.
func (b *StaticBrowser) SetCandidates(candidates []Candidate) {
	b.mu.Lock()
	b.candidates = candidates
	b.mu.Unlock()
}

// SetError makes subsequent Browse calls fail.
func (b *StaticBrowser) SetError(err error) {
	b.mu.Lock()
	b.err = err
	b.mu.Unlock()
}
