package heartbeat

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hivemesh/swarmd/bus"
	"github.com/hivemesh/swarmd/swarmstate"
)

// SenderConfig holds sender configuration.
type SenderConfig struct {
	// Bus carries the beats. Required.
	Bus bus.MessageBus

	// State, if set, receives a durable heartbeat upsert alongside each
	// bus publish so the coordinator can read liveness from the store.
	State *swarmstate.Client

	// Worker is the sending worker's name. Required.
	Worker string

	// Interval between beats.
	// Default: 60s
	Interval time.Duration

	// InitialState reported until SetState is called.
	// Default: "idle"
	InitialState string
}

// Validate checks the configuration.
func (c SenderConfig) Validate() error {
	if c.Bus == nil {
		return fmt.Errorf("%w: bus required", ErrInvalidConfig)
	}
	if c.Worker == "" {
		return fmt.Errorf("%w: worker name required", ErrInvalidConfig)
	}
	if c.Interval < 0 {
		return fmt.Errorf("%w: negative interval", ErrInvalidConfig)
	}
	return nil
}

// DefaultSenderConfig returns configuration with sensible defaults.
func DefaultSenderConfig() SenderConfig {
	return SenderConfig{
		Interval:     60 * time.Second,
		InitialState: "idle",
	}
}

// Sender publishes periodic beats for one worker.
type Sender struct {
	bus      bus.MessageBus
	state    *swarmstate.Client
	worker   string
	interval time.Duration

	mu       sync.RWMutex
	wstate   string
	network  string
	taskID   string
	failures int

	running atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSender creates a heartbeat sender.
func NewSender(cfg SenderConfig) (*Sender, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Interval == 0 {
		cfg.Interval = DefaultSenderConfig().Interval
	}
	if cfg.InitialState == "" {
		cfg.InitialState = DefaultSenderConfig().InitialState
	}

	return &Sender{
		bus:      cfg.Bus,
		state:    cfg.State,
		worker:   cfg.Worker,
		interval: cfg.Interval,
		wstate:   cfg.InitialState,
	}, nil
}

// Start begins sending beats at the configured interval. The first beat
// goes out immediately.
func (s *Sender) Start(ctx context.Context) error {
	if s.running.Swap(true) {
		return ErrAlreadyStarted
	}

	if ctx == nil {
		ctx = context.Background()
	}

	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	go s.run(ctx)
	return nil
}

func (s *Sender) run(ctx context.Context) {
	defer close(s.doneCh)

	s.Send()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.running.Store(false)
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.Send()
		}
	}
}

// Send publishes one beat immediately. Useful around state changes so
// the swarm sees them before the next tick.
func (s *Sender) Send() error {
	beat := s.build()

	data, err := beat.Marshal()
	if err != nil {
		return err
	}
	if err := s.bus.Publish(beat.Subject(), data); err != nil {
		return err
	}

	if s.state != nil {
		return s.state.ReportHeartbeat(swarmstate.WorkerStatus{
			Worker:              beat.Worker,
			State:               beat.State,
			Network:             beat.Network,
			CurrentTaskID:       beat.CurrentTaskID,
			ConsecutiveFailures: beat.ConsecutiveFailures,
		})
	}
	return nil
}

func (s *Sender) build() *Beat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &Beat{
		Worker:              s.worker,
		Timestamp:           time.Now(),
		State:               s.wstate,
		Network:             s.network,
		CurrentTaskID:       s.taskID,
		ConsecutiveFailures: s.failures,
	}
}

// SetState updates the lifecycle state included in beats.
func (s *Sender) SetState(state string) {
	s.mu.Lock()
	s.wstate = state
	s.mu.Unlock()
}

// SetNetwork updates the network included in beats.
func (s *Sender) SetNetwork(network string) {
	s.mu.Lock()
	s.network = network
	s.mu.Unlock()
}

// SetTask updates the current task ID included in beats.
// Pass "" when the task completes.
func (s *Sender) SetTask(taskID string) {
	s.mu.Lock()
	s.taskID = taskID
	s.mu.Unlock()
}

// SetFailures updates the consecutive-failure count included in beats.
func (s *Sender) SetFailures(n int) {
	s.mu.Lock()
	if n < 0 {
		n = 0
	}
	s.failures = n
	s.mu.Unlock()
}

// Stop stops sending beats.
func (s *Sender) Stop() error {
	if !s.running.Swap(false) {
		return ErrNotStarted
	}
	close(s.stopCh)
	<-s.doneCh
	return nil
}

// Worker returns the sender's worker name.
func (s *Sender) Worker() string {
	return s.worker
}
