// Package swarmstate provides the shared swarm-state client used by the
// coordinator and by workers.
//
// # Overview
//
// All cross-process swarm state lives in a state.StateStore under three
// key families:
//
//   - heartbeats.<worker>          latest status report per worker
//   - claims.<task-id>             one claim record per assigned task
//   - notifications.<worker>.<id>  pending messages for a worker
//
// Claims are written with Create, the store's insert-if-absent primitive,
// so two coordinators racing for the same task cannot both win: exactly
// one Create succeeds and the loser gets ErrAlreadyClaimed.
//
// # Read tolerance
//
// The swarm must keep operating when the store is degraded. Every read
// method logs a warning and returns empty results on store errors instead
// of failing; individual records that fail to decode are skipped. Writes
// (claims, notifications, heartbeats) return errors so callers can react.
//
// # Usage
//
//	client := swarmstate.NewClient(store, logger)
//
//	err := client.ClaimTask(swarmstate.Claim{
//	    TaskID: "task-42",
//	    Worker: "worker-1",
//	    Value:  12.5,
//	})
//	if errors.Is(err, swarmstate.ErrAlreadyClaimed) {
//	    // someone else got there first
//	}
package swarmstate
