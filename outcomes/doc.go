// Package outcomes closes the loop between workers and the coordinator.
//
// When a worker finishes an assigned task it reports an Outcome on the
// bus. The coordinator side runs a Recorder that applies outcomes to
// worker performance profiles: completions add earnings, failures count
// against the success rate, and ratings feed the running average.
//
// # Worker side
//
//	reporter, _ := outcomes.NewReporter(outcomes.ReporterConfig{
//		Bus:   b,
//		State: client,
//	})
//	reporter.Report(outcomes.Outcome{
//		TaskID:   "task-42",
//		Worker:   "indexer-3",
//		Status:   outcomes.StatusSuccess,
//		Category: "indexing",
//		Earned:   12.5,
//		Rating:   90,
//	})
//
// Reporting releases the task's claim in the shared store when a state
// client is configured, so the worker shows up as free again.
//
// # Coordinator side
//
//	recorder, _ := outcomes.NewRecorder(outcomes.RecorderConfig{
//		Bus:  b,
//		Sink: coord,
//	})
//	recorder.Start()
//	defer recorder.Stop()
package outcomes
