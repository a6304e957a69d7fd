// Package bus provides pub/sub messaging between swarm processes.
//
// # Overview
//
// The MessageBus interface carries the swarm's ephemeral traffic: workers
// publish heartbeats, the coordinator announces assignments. Durable state
// (claims, notifications) lives in the state package instead; the bus is
// fire-and-forget.
//
// # Available Implementations
//
//   - NATSBus: production messaging over a NATS server
//   - MemoryBus: in-process implementation for tests and single-node runs
//
// # Subjects
//
// Subjects are dot-separated and support NATS-style wildcards on the
// subscribe side ("*" matches one token, ">" matches the rest):
//
//	b.Publish(bus.HeartbeatSubject("worker-1"), beat)
//
//	sub, _ := b.Subscribe("swarm.heartbeats.*")
//	for msg := range sub.Messages() {
//	    // apply beat to the roster
//	}
//
// Subscriptions are channel-based. If a subscriber falls behind and its
// buffer fills, messages are dropped rather than blocking the publisher;
// heartbeats are periodic so a dropped beat is recovered by the next one.
package bus
