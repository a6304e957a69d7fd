package heartbeat

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hivemesh/swarmd/bus"
	"github.com/hivemesh/swarmd/lifecycle"
)

// MonitorConfig holds monitor configuration.
type MonitorConfig struct {
	// Bus carries incoming beats. Required.
	Bus bus.MessageBus

	// Roster, if set, gets RecordHeartbeat applied for every beat from
	// a known worker. Beats from unknown workers are still tracked.
	Roster *lifecycle.Roster

	// StaleAfter is how long a worker may go silent before OnStale fires.
	// Default: 10m
	StaleAfter time.Duration

	// CheckInterval between staleness sweeps.
	// Default: 30s
	CheckInterval time.Duration

	// OnStale fires once per silence: when a worker crosses StaleAfter.
	// A fresh beat re-arms it.
	OnStale func(worker string, lastSeen time.Time)
}

// Validate checks the configuration.
func (c MonitorConfig) Validate() error {
	if c.Bus == nil {
		return fmt.Errorf("%w: bus required", ErrInvalidConfig)
	}
	if c.StaleAfter < 0 || c.CheckInterval < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalidConfig)
	}
	return nil
}

// DefaultMonitorConfig returns configuration with sensible defaults.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		StaleAfter:    10 * time.Minute,
		CheckInterval: 30 * time.Second,
	}
}

// Monitor consumes beats from the bus and applies them to the roster.
type Monitor struct {
	bus        bus.MessageBus
	roster     *lifecycle.Roster
	staleAfter time.Duration
	interval   time.Duration
	onStale    func(string, time.Time)

	mu       sync.RWMutex
	latest   map[string]*Beat
	reported map[string]bool

	running atomic.Bool
	sub     bus.Subscription
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewMonitor creates a heartbeat monitor.
func NewMonitor(cfg MonitorConfig) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.StaleAfter == 0 {
		cfg.StaleAfter = DefaultMonitorConfig().StaleAfter
	}
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = DefaultMonitorConfig().CheckInterval
	}

	return &Monitor{
		bus:        cfg.Bus,
		roster:     cfg.Roster,
		staleAfter: cfg.StaleAfter,
		interval:   cfg.CheckInterval,
		onStale:    cfg.OnStale,
		latest:     make(map[string]*Beat),
		reported:   make(map[string]bool),
	}, nil
}

// Start subscribes to all worker beats and begins staleness sweeps.
func (m *Monitor) Start() error {
	if m.running.Swap(true) {
		return ErrAlreadyStarted
	}

	sub, err := m.bus.Subscribe(bus.HeartbeatSubjectPrefix + ".*")
	if err != nil {
		m.running.Store(false)
		return err
	}
	m.sub = sub

	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})

	go m.run()
	return nil
}

func (m *Monitor) run() {
	defer close(m.doneCh)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case msg, ok := <-m.sub.Messages():
			if !ok {
				return
			}
			m.apply(msg)
		case <-ticker.C:
			m.sweep(time.Now())
		}
	}
}

func (m *Monitor) apply(msg *bus.Message) {
	beat, err := Unmarshal(msg.Data)
	if err != nil || beat.Worker == "" {
		return
	}

	now := time.Now()
	m.mu.Lock()
	m.latest[beat.Worker] = beat
	delete(m.reported, beat.Worker)
	m.mu.Unlock()

	if m.roster != nil {
		// Unknown workers are tracked here but not in the roster.
		_ = m.roster.RecordHeartbeat(beat.Worker, now)
	}
}

// sweep fires OnStale for workers silent past the cutoff.
func (m *Monitor) sweep(now time.Time) {
	if m.onStale == nil {
		return
	}

	type stale struct {
		worker   string
		lastSeen time.Time
	}
	var found []stale

	m.mu.Lock()
	for worker, beat := range m.latest {
		if m.reported[worker] {
			continue
		}
		if now.Sub(beat.Timestamp) > m.staleAfter {
			m.reported[worker] = true
			found = append(found, stale{worker, beat.Timestamp})
		}
	}
	m.mu.Unlock()

	for _, s := range found {
		m.onStale(s.worker, s.lastSeen)
	}
}

// Latest returns the most recent beat from a worker.
func (m *Monitor) Latest(worker string) (*Beat, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	beat, ok := m.latest[worker]
	return beat, ok
}

// Workers returns all workers that have beaten at least once.
func (m *Monitor) Workers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	workers := make([]string, 0, len(m.latest))
	for worker := range m.latest {
		workers = append(workers, worker)
	}
	return workers
}

// Stop unsubscribes and halts sweeps.
func (m *Monitor) Stop() error {
	if !m.running.Swap(false) {
		return ErrNotStarted
	}
	close(m.stopCh)
	<-m.doneCh
	return m.sub.Unsubscribe()
}
