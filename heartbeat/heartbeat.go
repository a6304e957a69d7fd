package heartbeat

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/hivemesh/swarmd/bus"
)

// Common errors.
var (
	ErrAlreadyStarted = errors.New("heartbeat already started")
	ErrNotStarted     = errors.New("heartbeat not started")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// Beat is a single liveness report from a worker.
type Beat struct {
	// Worker uniquely identifies the sending worker.
	Worker string `json:"worker"`

	// Timestamp when the beat was generated.
	Timestamp time.Time `json:"timestamp"`

	// State is the worker's lifecycle state (e.g., "idle", "working").
	State string `json:"state"`

	// Network the worker operates on, if any.
	Network string `json:"network,omitempty"`

	// CurrentTaskID is set while the worker holds a task.
	CurrentTaskID string `json:"current_task_id,omitempty"`

	// ConsecutiveFailures as counted by the worker itself.
	ConsecutiveFailures int `json:"consecutive_failures"`
}

// Marshal serializes a beat to JSON.
func (b *Beat) Marshal() ([]byte, error) {
	return json.Marshal(b)
}

// Unmarshal deserializes a beat from JSON.
func Unmarshal(data []byte) (*Beat, error) {
	var b Beat
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Subject returns the bus subject for this beat.
func (b *Beat) Subject() string {
	return bus.HeartbeatSubject(b.Worker)
}
