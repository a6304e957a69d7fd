package swarmstate

import "time"

// Summary is a point-in-time view of the whole swarm.
type Summary struct {
	// Workers is the number of workers with a status record.
	Workers int `json:"workers"`

	// ByState counts workers per reported state.
	ByState map[string]int `json:"by_state"`

	// Stale is the number of workers past the staleness cutoff.
	Stale int `json:"stale"`

	// ActiveClaims is the number of claimed tasks.
	ActiveClaims int `json:"active_claims"`

	// TotalValue is the summed value of all active claims.
	TotalValue float64 `json:"total_value"`
}

// Summarize builds a swarm summary. maxAge is the heartbeat staleness
// cutoff.
func (c *Client) Summarize(maxAge time.Duration) Summary {
	summary := Summary{ByState: make(map[string]int)}

	now := c.now()
	for _, status := range c.WorkerStates() {
		summary.Workers++
		summary.ByState[status.State]++
		if now.Sub(status.UpdatedAt) > maxAge {
			summary.Stale++
		}
	}

	for _, claim := range c.ClaimedTasks() {
		summary.ActiveClaims++
		summary.TotalValue += claim.Value
	}
	return summary
}
