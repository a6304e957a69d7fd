// Package match scores and ranks workers for task candidates.
//
// The enhanced score blends five factors, each in [0,1]: skill-keyword
// overlap with the task text, historical reliability, category track
// record, network experience, and budget fit. Factor weights are
// configurable and must sum to 1. When unified reputation is available it
// is applied as a final confidence-dampened boost. A legacy mode scoring
// purely on skill overlap remains selectable.
//
// Ranking is deterministic: descending by score, ties broken by worker
// name.
package match
