package outcomes

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hivemesh/swarmd/bus"
)

// Common errors.
var (
	ErrInvalidOutcome = errors.New("invalid outcome")
	ErrInvalidConfig  = errors.New("invalid outcomes configuration")
	ErrAlreadyStarted = errors.New("recorder already started")
	ErrNotStarted     = errors.New("recorder not started")
)

// Status represents the final state of an assigned task.
type Status string

const (
	// StatusSuccess indicates the task completed successfully.
	StatusSuccess Status = "success"

	// StatusFailed indicates the worker gave up on the task.
	StatusFailed Status = "failed"
)

// Valid returns true if the status is a known value.
func (s Status) Valid() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Outcome is a worker's report on a finished task.
type Outcome struct {
	// TaskID is the marketplace identifier of the finished task.
	TaskID string `json:"task_id"`

	// Worker is the reporting worker.
	Worker string `json:"worker"`

	// Status is success or failed.
	Status Status `json:"status"`

	// Category and Network describe the task for profile bookkeeping.
	Category string `json:"category,omitempty"`
	Network  string `json:"network,omitempty"`

	// Earned is the value collected on success.
	Earned float64 `json:"earned,omitempty"`

	// Rating is the requester's rating on a 0-100 scale.
	// Negative means no rating was given.
	Rating float64 `json:"rating"`

	// Error carries the failure reason when Status is failed.
	Error string `json:"error,omitempty"`

	// CompletedAt is when the worker finished the task.
	CompletedAt time.Time `json:"completed_at"`
}

// Validate checks an outcome before it goes on the wire.
func (o Outcome) Validate() error {
	if o.TaskID == "" {
		return fmt.Errorf("%w: task ID required", ErrInvalidOutcome)
	}
	if o.Worker == "" {
		return fmt.Errorf("%w: worker required", ErrInvalidOutcome)
	}
	if !o.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidOutcome, o.Status)
	}
	return nil
}

// Subject returns the bus subject this outcome is published on.
func (o Outcome) Subject() string {
	return bus.OutcomeSubject(o.Worker)
}

// Marshal encodes the outcome as JSON.
func (o Outcome) Marshal() ([]byte, error) {
	return json.Marshal(o)
}

// Unmarshal decodes an outcome from JSON. A report without a rating
// field stays unrated rather than decoding to a zero rating.
func Unmarshal(data []byte) (*Outcome, error) {
	o := Outcome{Rating: -1}
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("unmarshal outcome: %w", err)
	}
	return &o, nil
}
