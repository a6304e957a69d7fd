// Package marketplace supplies candidate work items to the coordinator.
//
// The coordinator treats the marketplace as a read-only feed: each cycle
// it browses open candidates, ranks workers against them, and claims
// through the shared state store. Only the fields the matching engine
// consumes are decoded; the rest of the wire format is ignored.
//
// Two Browser implementations are provided: HTTPBrowser for a remote
// marketplace API and StaticBrowser for tests and offline runs.
package marketplace
