// Package state provides the shared key-value store backing swarm
// coordination.
//
// The StateStore interface covers plain key-value access plus the two
// primitives swarm coordination depends on: Create, an atomic
// insert-if-absent used for exclusive task claims, and Lock, a TTL'd
// distributed lock for longer critical sections. Create is the only safe
// claim mechanism across independent coordinator processes; a
// read-then-write emulation reintroduces the race it exists to prevent.
//
// Two backends are provided: NATS JetStream KV for production (Create maps
// to the KV bucket's create operation) and an in-memory store for tests and
// single-process use.
//
// # Usage
//
//	store := state.NewMemoryStore()
//	defer store.Close()
//
//	// Atomic claim: exactly one caller wins.
//	err := store.Create("claims.task-42", []byte("worker-1"), time.Hour)
//	if errors.Is(err, state.ErrAlreadyExists) {
//	    // someone else holds the claim
//	}
//
//	// Heartbeat upsert.
//	store.Put("heartbeats.worker-1", payload, 0)
package state
