// Package coordinator runs the swarm's assignment cycle.
//
// # Overview
//
// One cycle reads the live worker picture from the shared store, browses
// the marketplace for open candidates, ranks eligible workers per
// candidate with the match package, and claims the top worker through
// the store's atomic insert-if-absent primitive. A claim that succeeds
// is final: the follow-up notification may fail and is only logged.
//
// # Eligibility
//
// A worker is eligible when its reported state is idle, it is not a
// system worker, and it has not already been assigned this cycle.
// Candidates owned by the coordinator's own identity are skipped.
//
// # Claim conflicts
//
// When a claim fails because another process already holds the task,
// the task is considered taken: the coordinator moves to the next
// candidate and never offers the same task to a lower-ranked worker.
//
// # Dry run
//
// With DryRun set, the full cycle computes rankings and would-be
// assignments but writes nothing: no claims, no notifications.
package coordinator
