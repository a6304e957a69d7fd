package bus

import (
	"errors"
	"strings"
)

// Common errors.
var (
	ErrClosed         = errors.New("bus closed")
	ErrInvalidSubject = errors.New("invalid subject")
)

// Well-known subject prefixes used by the swarm.
const (
	// HeartbeatSubjectPrefix is where workers publish liveness beats.
	// Full subject: swarm.heartbeats.<worker>
	HeartbeatSubjectPrefix = "swarm.heartbeats"

	// OutcomeSubjectPrefix is where workers report finished tasks.
	OutcomeSubjectPrefix = "swarm.outcomes"

	// AssignmentSubjectPrefix is where the coordinator announces
	// assignments. Full subject: swarm.assignments.<worker>
	AssignmentSubjectPrefix = "swarm.assignments"
)

// HeartbeatSubject returns the heartbeat subject for a worker.
func HeartbeatSubject(worker string) string {
	return HeartbeatSubjectPrefix + "." + worker
}

// AssignmentSubject returns the assignment subject for a worker.
func AssignmentSubject(worker string) string {
	return AssignmentSubjectPrefix + "." + worker
}

// OutcomeSubject returns the outcome subject for a worker.
func OutcomeSubject(worker string) string {
	return OutcomeSubjectPrefix + "." + worker
}

// Message represents a message received from the bus.
type Message struct {
	// Subject the message was published to.
	Subject string

	// Data is the message payload.
	Data []byte
}

// MessageBus provides pub/sub messaging between swarm processes.
type MessageBus interface {
	// Publish sends a message to all subscribers of a subject.
	Publish(subject string, data []byte) error

	// Subscribe creates a subscription to a subject.
	// Subjects may use NATS-style wildcards: "*" matches one token,
	// ">" matches the rest ("swarm.heartbeats.*", "swarm.>").
	Subscribe(subject string) (Subscription, error)

	// Close shuts down the bus connection.
	Close() error
}

// Subscription represents an active subscription.
type Subscription interface {
	// Messages returns the channel for incoming messages.
	// Channel is closed when subscription ends.
	Messages() <-chan *Message

	// Unsubscribe cancels the subscription.
	Unsubscribe() error
}

// Config holds common bus configuration.
type Config struct {
	// BufferSize for subscription channels.
	// Default: 256
	BufferSize int
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize: 256,
	}
}

// ValidateSubject checks if a subject is valid.
func ValidateSubject(subject string) error {
	if subject == "" {
		return ErrInvalidSubject
	}
	if strings.Contains(subject, " ") {
		return ErrInvalidSubject
	}
	for _, tok := range strings.Split(subject, ".") {
		if tok == "" {
			return ErrInvalidSubject
		}
	}
	return nil
}

// MatchSubject reports whether a concrete subject matches a subscription
// pattern. Patterns follow NATS semantics: "*" matches exactly one token,
// ">" matches one or more trailing tokens.
func MatchSubject(pattern, subject string) bool {
	pt := strings.Split(pattern, ".")
	st := strings.Split(subject, ".")

	for i, p := range pt {
		if p == ">" {
			return i < len(st)
		}
		if i >= len(st) {
			return false
		}
		if p != "*" && p != st[i] {
			return false
		}
	}
	return len(pt) == len(st)
}
