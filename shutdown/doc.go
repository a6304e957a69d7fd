// Package shutdown tears down daemon components in order.
//
// The swarmd daemon owns components with teardown dependencies: the
// outcome recorder must drain its bus subscription before the state
// store closes, and the store must flush before the NATS connection
// drops. The Coordinator runs registered handlers in phase order,
// lower phases first, handlers within a phase concurrently.
//
//	sc := shutdown.NewCoordinator(shutdown.Config{})
//	sc.RegisterWithPhase("outcome-recorder", shutdown.ShutdownFunc(func(ctx context.Context) error {
//		return recorder.Stop()
//	}), 10)
//	sc.RegisterWithPhase("state-store", shutdown.ShutdownFunc(func(ctx context.Context) error {
//		return store.Close()
//	}), 20)
//
//	sc.HandleSignals()
//	<-sc.Done()
//
// Shutdown runs handlers at most once; later calls return the outcome
// of the first. The context passed to Shutdown bounds the whole
// sequence and ErrTimeout is returned for phases it never reached.
package shutdown
