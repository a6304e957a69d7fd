package outcomes

import (
	"fmt"
	"time"

	"github.com/hivemesh/swarmd/bus"
	"github.com/hivemesh/swarmd/swarmstate"
)

// ReporterConfig holds reporter configuration.
type ReporterConfig struct {
	// Bus carries the outcome to whoever coordinates. Required.
	Bus bus.MessageBus

	// State, if set, gets the task claim released on every report
	// so the slot shows up as free in the shared store.
	State *swarmstate.Client
}

// Validate checks the configuration.
func (c ReporterConfig) Validate() error {
	if c.Bus == nil {
		return fmt.Errorf("%w: bus required", ErrInvalidConfig)
	}
	return nil
}

// Reporter publishes task outcomes from the worker side.
type Reporter struct {
	bus   bus.MessageBus
	state *swarmstate.Client
	now   func() time.Time
}

// NewReporter creates an outcome reporter.
func NewReporter(cfg ReporterConfig) (*Reporter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Reporter{
		bus:   cfg.Bus,
		state: cfg.State,
		now:   time.Now,
	}, nil
}

// Report validates and publishes an outcome, then releases the
// task's claim when a state client is configured. A zero CompletedAt
// is stamped with the current time. A missing rating should be
// reported as a negative Rating.
func (r *Reporter) Report(o Outcome) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if o.CompletedAt.IsZero() {
		o.CompletedAt = r.now()
	}

	data, err := o.Marshal()
	if err != nil {
		return err
	}
	if err := r.bus.Publish(o.Subject(), data); err != nil {
		return fmt.Errorf("publish outcome: %w", err)
	}

	if r.state != nil {
		if err := r.state.ReleaseClaim(o.TaskID); err != nil {
			return fmt.Errorf("release claim: %w", err)
		}
	}
	return nil
}
