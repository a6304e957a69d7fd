package swarmstate

import (
	"encoding/json"
	"fmt"
	"sort"

	"time"

	"github.com/google/uuid"
)

// Notification kinds.
const (
	NotifyAssignment = "assignment"
	NotifyRelease    = "release"
	NotifyShutdown   = "shutdown"
)

// Notification is a message queued for a worker in the shared store.
type Notification struct {
	ID        string          `json:"id"`
	Worker    string          `json:"worker"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	Delivered bool            `json:"delivered"`
}

// Notify queues a notification for a worker and returns its ID.
func (c *Client) Notify(worker, kind string, payload interface{}) (string, error) {
	if worker == "" {
		return "", fmt.Errorf("%w: worker name required", ErrInvalidRecord)
	}

	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return "", fmt.Errorf("marshal payload: %w", err)
		}
		raw = data
	}

	n := Notification{
		ID:        uuid.NewString(),
		Worker:    worker,
		Kind:      kind,
		Payload:   raw,
		CreatedAt: c.now(),
	}

	data, err := json.Marshal(n)
	if err != nil {
		return "", fmt.Errorf("marshal notification: %w", err)
	}
	if err := c.store.Put(notificationKey(worker, n.ID), data, 0); err != nil {
		return "", fmt.Errorf("store notification: %w", err)
	}
	return n.ID, nil
}

// PollNotifications returns a worker's undelivered notifications in
// creation order and marks them delivered. Store errors are logged and
// yield an empty slice.
func (c *Client) PollNotifications(worker string) []Notification {
	keys, err := c.store.Keys(notificationPrefix + worker + ".*")
	if err != nil {
		c.log.Warn("list notifications failed", map[string]interface{}{
			"worker": worker,
			"error":  err.Error(),
		})
		return nil
	}

	var pending []Notification
	for _, key := range keys {
		data, err := c.store.Get(key)
		if err != nil {
			continue
		}
		var n Notification
		if err := json.Unmarshal(data, &n); err != nil {
			c.log.Warn("skipping undecodable notification", map[string]interface{}{"key": key})
			continue
		}
		if n.Delivered {
			continue
		}
		pending = append(pending, n)
	}

	sort.Slice(pending, func(i, j int) bool {
		if pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].ID < pending[j].ID
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})

	for _, n := range pending {
		n.Delivered = true
		data, err := json.Marshal(n)
		if err != nil {
			continue
		}
		if err := c.store.Put(notificationKey(n.Worker, n.ID), data, 0); err != nil {
			c.log.Warn("mark delivered failed", map[string]interface{}{
				"id":    n.ID,
				"error": err.Error(),
			})
		}
	}
	return pending
}

func notificationKey(worker, id string) string {
	return notificationPrefix + worker + "." + id
}
