package shutdown

import (
	"context"
	"errors"
	"time"
)

// Common errors.
var (
	// ErrAlreadyShutdown indicates shutdown was already initiated.
	ErrAlreadyShutdown = errors.New("shutdown already initiated")

	// ErrTimeout indicates shutdown did not complete within the timeout.
	ErrTimeout = errors.New("shutdown timeout exceeded")

	// ErrHandlerFailed indicates one or more handlers failed during shutdown.
	ErrHandlerFailed = errors.New("one or more handlers failed")
)

// Handler is implemented by components that need orderly teardown,
// like the outcome recorder draining its subscription before the
// state store closes underneath it.
type Handler interface {
	// OnShutdown is called when shutdown is initiated. The context is
	// cancelled when the overall timeout is reached.
	OnShutdown(ctx context.Context) error
}

// ShutdownFunc adapts a function to the Handler interface.
type ShutdownFunc func(ctx context.Context) error

// OnShutdown implements Handler.
func (f ShutdownFunc) OnShutdown(ctx context.Context) error {
	return f(ctx)
}

// HandlerResult is the outcome of a single handler's teardown.
type HandlerResult struct {
	Name     string
	Phase    int
	Duration time.Duration
	Err      error
}

// Config configures the shutdown coordinator.
type Config struct {
	// DefaultTimeout bounds signal-initiated shutdowns.
	// Default: 30 seconds
	DefaultTimeout time.Duration

	// DefaultPhase is assigned to handlers registered without a phase.
	// Default: 100
	DefaultPhase int

	// OnProgress is called as each handler completes.
	OnProgress func(result HandlerResult)
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DefaultTimeout: 30 * time.Second,
		DefaultPhase:   100,
	}
}

// registration pairs a handler with its phase.
type registration struct {
	name    string
	handler Handler
	phase   int
}
