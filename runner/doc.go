// Package runner schedules the swarm's periodic cycles.
//
// # Overview
//
// Three cycle types run on independent intervals: coordination (match
// and claim tasks), reputation refresh (re-fuse trust scores and write a
// leaderboard snapshot), and health (assess the fleet and recommend
// actions). The daemon loop sleeps until the nearest due cycle, capped
// at 30 seconds so shutdown and unpause are responsive.
//
// # Auto-pause
//
// After a configurable number of consecutive coordination failures
// (default 3) the runner pauses itself: coordination cycles stop until
// Unpause is called. Reputation and health cycles keep running while
// paused so operators retain visibility.
//
// # Persistence
//
// RunnerState (cycle timestamps, lifetime counters, pause flag) is
// saved as JSON after every single-shot run, periodically in daemon
// mode, and on shutdown, including after partially failed cycles.
package runner
