package swarmstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hivemesh/swarmd/state"
)

// Claim records that a worker holds a task.
type Claim struct {
	TaskID    string    `json:"task_id"`
	Worker    string    `json:"worker"`
	Value     float64   `json:"value"`
	ClaimedAt time.Time `json:"claimed_at"`
}

// ClaimTask atomically claims a task for a worker. If any process has
// already claimed the task, ErrAlreadyClaimed is returned and the
// existing claim is left untouched.
func (c *Client) ClaimTask(claim Claim) error {
	if claim.TaskID == "" || claim.Worker == "" {
		return fmt.Errorf("%w: task id and worker required", ErrInvalidRecord)
	}
	claim.ClaimedAt = c.now()

	data, err := json.Marshal(claim)
	if err != nil {
		return fmt.Errorf("marshal claim: %w", err)
	}

	err = c.store.Create(claimPrefix+claim.TaskID, data, 0)
	if errors.Is(err, state.ErrAlreadyExists) {
		return ErrAlreadyClaimed
	}
	if err != nil {
		return fmt.Errorf("store claim: %w", err)
	}
	return nil
}

// ReleaseClaim removes a task's claim record. Releasing an unclaimed
// task is not an error.
func (c *Client) ReleaseClaim(taskID string) error {
	if err := c.store.Delete(claimPrefix + taskID); err != nil {
		return fmt.Errorf("release claim: %w", err)
	}
	return nil
}

// ClaimedTasks returns all active claims keyed by task ID.
// Store errors are logged and yield an empty map.
func (c *Client) ClaimedTasks() map[string]Claim {
	claims := make(map[string]Claim)

	keys, err := c.store.Keys(claimPrefix + "*")
	if err != nil {
		c.log.Warn("list claims failed", map[string]interface{}{"error": err.Error()})
		return claims
	}

	for _, key := range keys {
		data, err := c.store.Get(key)
		if err != nil {
			continue
		}
		var claim Claim
		if err := json.Unmarshal(data, &claim); err != nil {
			c.log.Warn("skipping undecodable claim", map[string]interface{}{"key": key})
			continue
		}
		if claim.TaskID == "" {
			claim.TaskID = strings.TrimPrefix(key, claimPrefix)
		}
		claims[claim.TaskID] = claim
	}
	return claims
}
