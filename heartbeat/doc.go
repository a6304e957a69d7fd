// Package heartbeat keeps the swarm's liveness picture current.
//
// # Overview
//
// Workers run a Sender that publishes a Beat to the bus at a fixed
// interval (and optionally upserts the durable status record in the
// shared store). The coordinator side runs a Monitor that subscribes to
// all beats, applies them to the lifecycle roster, and fires a callback
// when a worker goes silent.
//
// # Usage
//
// Worker side:
//
//	sender, _ := heartbeat.NewSender(heartbeat.SenderConfig{
//	    Bus:    b,
//	    Worker: "worker-1",
//	})
//	sender.Start(ctx)
//	sender.SetState("working")
//	sender.SetTask("task-42")
//
// Coordinator side:
//
//	monitor, _ := heartbeat.NewMonitor(heartbeat.MonitorConfig{
//	    Bus:    b,
//	    Roster: roster,
//	    OnStale: func(worker string, lastSeen time.Time) {
//	        // escalate: mark the worker in error
//	    },
//	})
//	monitor.Start()
//
// Staleness reporting is edge-triggered: OnStale fires once when a worker
// crosses the cutoff, and a fresh beat re-arms it. The Monitor's roster
// updates use lifecycle.Roster.RecordHeartbeat, which only touches
// known workers; beats from workers outside the roster remain visible
// through Latest and Workers.
package heartbeat
