package shutdown

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestCoordinator_PhaseOrder(t *testing.T) {
	c := NewCoordinator(Config{})

	var mu sync.Mutex
	var order []string
	record := func(name string) ShutdownFunc {
		return func(ctx context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	c.RegisterWithPhase("store", record("store"), 20)
	c.RegisterWithPhase("recorder", record("recorder"), 10)

	if err := c.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	if len(order) != 2 || order[0] != "recorder" || order[1] != "store" {
		t.Errorf("order = %v, want [recorder store]", order)
	}
}

func TestCoordinator_SamePhaseConcurrent(t *testing.T) {
	c := NewCoordinator(Config{})

	gate := make(chan struct{})
	blocked := func(ctx context.Context) error {
		<-gate
		return nil
	}
	release := func(ctx context.Context) error {
		close(gate)
		return nil
	}

	// Both run in the same phase; if they were sequential the first
	// would deadlock waiting for the second.
	c.Register("blocked", ShutdownFunc(blocked))
	c.Register("release", ShutdownFunc(release))

	done := make(chan error, 1)
	go func() { done <- c.Shutdown(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("same-phase handlers did not run concurrently")
	}
}

func TestCoordinator_RunsOnce(t *testing.T) {
	c := NewCoordinator(Config{})

	var calls int
	var mu sync.Mutex
	c.Register("counter", ShutdownFunc(func(ctx context.Context) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	}))

	if err := c.Shutdown(context.Background()); err != nil {
		t.Fatalf("first Shutdown() error = %v", err)
	}
	if err := c.Shutdown(context.Background()); err != nil {
		t.Fatalf("second Shutdown() error = %v", err)
	}

	if calls != 1 {
		t.Errorf("handler ran %d times, want 1", calls)
	}
}

func TestCoordinator_HandlerFailure(t *testing.T) {
	var progress []HandlerResult
	var mu sync.Mutex

	c := NewCoordinator(Config{
		OnProgress: func(hr HandlerResult) {
			mu.Lock()
			progress = append(progress, hr)
			mu.Unlock()
		},
	})

	ran := false
	c.RegisterWithPhase("broken", ShutdownFunc(func(ctx context.Context) error {
		return errors.New("flush failed")
	}), 10)
	c.RegisterWithPhase("after", ShutdownFunc(func(ctx context.Context) error {
		ran = true
		return nil
	}), 20)

	err := c.Shutdown(context.Background())
	if !errors.Is(err, ErrHandlerFailed) {
		t.Errorf("Shutdown() = %v, want ErrHandlerFailed", err)
	}
	if !ran {
		t.Error("later phases should still run after a failure")
	}

	if len(progress) != 2 {
		t.Fatalf("OnProgress fired %d times, want 2", len(progress))
	}
	if progress[0].Name != "broken" || progress[0].Err == nil {
		t.Errorf("first progress = %+v", progress[0])
	}
}

func TestCoordinator_Timeout(t *testing.T) {
	c := NewCoordinator(Config{})

	c.RegisterWithPhase("slow", ShutdownFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}), 10)

	reached := false
	c.RegisterWithPhase("next-phase", ShutdownFunc(func(ctx context.Context) error {
		reached = true
		return nil
	}), 20)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := c.Shutdown(ctx)
	if !errors.Is(err, ErrTimeout) && !errors.Is(err, ErrHandlerFailed) {
		t.Errorf("Shutdown() = %v, want timeout or handler failure", err)
	}
	if reached {
		t.Error("phases after the deadline should not run")
	}
}

func TestCoordinator_DoneAndResults(t *testing.T) {
	c := NewCoordinator(Config{})
	c.Register("noop", ShutdownFunc(func(ctx context.Context) error { return nil }))

	if c.Err() != nil {
		t.Error("Err() should be nil before shutdown")
	}
	if c.Results() != nil {
		t.Error("Results() should be nil before shutdown")
	}

	if err := c.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	select {
	case <-c.Done():
	default:
		t.Error("Done() should be closed after shutdown")
	}

	results := c.Results()
	if len(results) != 1 || results[0].Name != "noop" {
		t.Errorf("Results() = %+v", results)
	}
}

func TestCoordinator_Trigger(t *testing.T) {
	c := NewCoordinator(Config{DefaultTimeout: time.Second})

	fired := make(chan struct{})
	c.Register("observer", ShutdownFunc(func(ctx context.Context) error {
		close(fired)
		return nil
	}))

	c.HandleSignals()
	c.Trigger()

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("Trigger did not initiate shutdown")
	}
}
