package swarmstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hivemesh/swarmd/logging"
	"github.com/hivemesh/swarmd/state"
)

// Common errors.
var (
	ErrAlreadyClaimed = errors.New("task already claimed")
	ErrInvalidRecord  = errors.New("invalid record")
)

// Key prefixes in the underlying store.
const (
	heartbeatPrefix    = "heartbeats."
	claimPrefix        = "claims."
	notificationPrefix = "notifications."
)

// WorkerStatus is the record a worker upserts on every heartbeat.
type WorkerStatus struct {
	Worker              string    `json:"worker"`
	State               string    `json:"state"`
	Network             string    `json:"network,omitempty"`
	CurrentTaskID       string    `json:"current_task_id,omitempty"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Client reads and writes shared swarm state.
type Client struct {
	store state.StateStore
	log   *logging.Logger
	now   func() time.Time
}

// NewClient creates a swarm-state client over a store.
func NewClient(store state.StateStore, log *logging.Logger) *Client {
	if log == nil {
		log = logging.New()
	}
	return &Client{
		store: store,
		log:   log.WithComponent("swarmstate"),
		now:   time.Now,
	}
}

// ReportHeartbeat upserts a worker's status record. The UpdatedAt field
// is stamped by the client.
func (c *Client) ReportHeartbeat(status WorkerStatus) error {
	if status.Worker == "" {
		return fmt.Errorf("%w: worker name required", ErrInvalidRecord)
	}
	status.UpdatedAt = c.now()

	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshal heartbeat: %w", err)
	}
	if err := c.store.Put(heartbeatPrefix+status.Worker, data, 0); err != nil {
		return fmt.Errorf("store heartbeat: %w", err)
	}
	return nil
}

// WorkerStates returns the latest status record per worker.
// Store errors are logged and yield an empty map.
func (c *Client) WorkerStates() map[string]WorkerStatus {
	states := make(map[string]WorkerStatus)

	keys, err := c.store.Keys(heartbeatPrefix + "*")
	if err != nil {
		c.log.Warn("list heartbeats failed", map[string]interface{}{"error": err.Error()})
		return states
	}

	for _, key := range keys {
		data, err := c.store.Get(key)
		if err != nil {
			continue
		}
		var status WorkerStatus
		if err := json.Unmarshal(data, &status); err != nil {
			c.log.Warn("skipping undecodable heartbeat", map[string]interface{}{"key": key})
			continue
		}
		if status.Worker == "" {
			status.Worker = strings.TrimPrefix(key, heartbeatPrefix)
		}
		states[status.Worker] = status
	}
	return states
}

// StaleWorkers returns workers whose last heartbeat is older than maxAge.
func (c *Client) StaleWorkers(maxAge time.Duration) []string {
	now := c.now()
	var stale []string
	for worker, status := range c.WorkerStates() {
		if now.Sub(status.UpdatedAt) > maxAge {
			stale = append(stale, worker)
		}
	}
	return stale
}
