package ratelimit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/hivemesh/swarmd/bus"
)

// SharedConfig configures a bus-coordinated rate limiter.
type SharedConfig struct {
	// Bus carries capacity updates between coordinators. Required.
	Bus bus.MessageBus

	// Origin is this coordinator's identity. Required.
	// Updates stamped with it are ignored on receipt.
	Origin string

	// ReduceFactor is the multiplier when cutting capacity (0-1).
	// Default: 0.5
	ReduceFactor float64

	// RecoveryInterval is how often to attempt capacity recovery.
	// Default: 30 seconds
	RecoveryInterval time.Duration

	// RecoveryFactor is the multiplier when recovering capacity (>1).
	// Default: 1.1
	RecoveryFactor float64
}

// Validate checks the configuration.
func (c SharedConfig) Validate() error {
	if c.Bus == nil || c.Origin == "" {
		return ErrInvalidConfig
	}
	return nil
}

// DefaultSharedConfig returns configuration with sensible defaults.
func DefaultSharedConfig() SharedConfig {
	return SharedConfig{
		ReduceFactor:     0.5,
		RecoveryInterval: 30 * time.Second,
		RecoveryFactor:   1.1,
	}
}

// resourceConfig tracks the pre-reduction settings per resource.
type resourceConfig struct {
	originalCapacity int
	window           time.Duration
}

// SharedLimiter coordinates rate limits across coordinators via the bus.
// When any replica sees upstream pushback it cuts its own budget and
// broadcasts the cut; the rest apply it, then recovery restores capacity
// gradually toward the original.
type SharedLimiter struct {
	config SharedConfig
	local  *MemoryLimiter

	mu                 sync.RWMutex
	resourceConfigs    map[string]*resourceConfig
	lastReduction      map[string]time.Time
	onCapacityCallback OnCapacityChange

	sub    bus.Subscription
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSharedLimiter creates a bus-coordinated rate limiter.
func NewSharedLimiter(config SharedConfig) (*SharedLimiter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.ReduceFactor == 0 {
		config.ReduceFactor = DefaultSharedConfig().ReduceFactor
	}
	if config.RecoveryInterval == 0 {
		config.RecoveryInterval = DefaultSharedConfig().RecoveryInterval
	}
	if config.RecoveryFactor == 0 {
		config.RecoveryFactor = DefaultSharedConfig().RecoveryFactor
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &SharedLimiter{
		config:          config,
		local:           NewMemoryLimiter(),
		resourceConfigs: make(map[string]*resourceConfig),
		lastReduction:   make(map[string]time.Time),
		ctx:             ctx,
		cancel:          cancel,
	}

	sub, err := config.Bus.Subscribe(CapacitySubject)
	if err != nil {
		cancel()
		return nil, err
	}
	d.sub = sub

	d.wg.Add(2)
	go d.listenForUpdates()
	go d.recoveryLoop()

	return d, nil
}

// listenForUpdates applies capacity cuts announced by other coordinators.
func (d *SharedLimiter) listenForUpdates() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return
		case msg, ok := <-d.sub.Messages():
			if !ok {
				return
			}
			d.handleUpdate(msg)
		}
	}
}

func (d *SharedLimiter) handleUpdate(msg *bus.Message) {
	var update CapacityUpdate
	if err := json.Unmarshal(msg.Data, &update); err != nil {
		return
	}
	if update.Origin == d.config.Origin {
		return
	}

	d.mu.Lock()
	rc, exists := d.resourceConfigs[update.Resource]
	if exists && update.NewCapacity < rc.originalCapacity {
		d.local.SetCapacity(update.Resource, update.NewCapacity, rc.window)
		d.lastReduction[update.Resource] = time.Now()
	}
	callback := d.onCapacityCallback
	d.mu.Unlock()

	if callback != nil {
		callback(&update)
	}
}

// recoveryLoop periodically restores reduced capacity.
func (d *SharedLimiter) recoveryLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.RecoveryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.attemptRecovery()
		}
	}
}

// attemptRecovery grows reduced capacity back toward the original,
// one RecoveryFactor step per interval.
func (d *SharedLimiter) attemptRecovery() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()

	for resource, lastReduce := range d.lastReduction {
		if now.Sub(lastReduce) < d.config.RecoveryInterval {
			continue
		}

		rc, exists := d.resourceConfigs[resource]
		if !exists {
			continue
		}

		cap := d.local.GetCapacity(resource)
		if cap == nil {
			continue
		}

		newCapacity := int(float64(cap.Total) * d.config.RecoveryFactor)
		if newCapacity > rc.originalCapacity {
			newCapacity = rc.originalCapacity
		}

		if newCapacity > cap.Total {
			d.local.SetCapacity(resource, newCapacity, rc.window)
		}

		if newCapacity >= rc.originalCapacity {
			delete(d.lastReduction, resource)
		}
	}
}

// SetCapacity configures the rate limit for a resource.
func (d *SharedLimiter) SetCapacity(resource string, capacity int, window time.Duration) {
	d.mu.Lock()
	d.resourceConfigs[resource] = &resourceConfig{
		originalCapacity: capacity,
		window:           window,
	}
	d.mu.Unlock()

	d.local.SetCapacity(resource, capacity, window)
}

// GetCapacity returns the current capacity info for a resource.
func (d *SharedLimiter) GetCapacity(resource string) *Capacity {
	return d.local.GetCapacity(resource)
}

// Acquire blocks until a token is available for the resource.
func (d *SharedLimiter) Acquire(ctx context.Context, resource string) error {
	return d.local.Acquire(ctx, resource)
}

// TryAcquire attempts to acquire a token without blocking.
func (d *SharedLimiter) TryAcquire(resource string) bool {
	return d.local.TryAcquire(resource)
}

// Release returns a token to the resource bucket.
func (d *SharedLimiter) Release(resource string) {
	d.local.Release(resource)
}

// AnnounceReduced cuts local capacity and broadcasts the cut.
func (d *SharedLimiter) AnnounceReduced(resource string, reason string) {
	d.mu.Lock()
	rc, exists := d.resourceConfigs[resource]
	if !exists {
		d.mu.Unlock()
		return
	}

	cap := d.local.GetCapacity(resource)
	if cap == nil {
		d.mu.Unlock()
		return
	}

	newCapacity := int(float64(cap.Total) * d.config.ReduceFactor)
	if newCapacity < 1 {
		newCapacity = 1
	}

	d.local.SetCapacity(resource, newCapacity, rc.window)
	d.lastReduction[resource] = time.Now()
	d.mu.Unlock()

	update := CapacityUpdate{
		Resource:    resource,
		Origin:      d.config.Origin,
		NewCapacity: newCapacity,
		Reason:      reason,
		Timestamp:   time.Now(),
	}

	data, err := json.Marshal(update)
	if err != nil {
		return
	}
	_ = d.config.Bus.Publish(CapacitySubject, data)
}

// OnCapacityChange sets a callback for capacity change notifications.
func (d *SharedLimiter) OnCapacityChange(cb OnCapacityChange) {
	d.mu.Lock()
	d.onCapacityCallback = cb
	d.mu.Unlock()
}

// Close shuts down the limiter.
func (d *SharedLimiter) Close() error {
	d.cancel()

	if d.sub != nil {
		_ = d.sub.Unsubscribe()
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
	}

	return d.local.Close()
}

// Ensure SharedLimiter implements RateLimiter.
var _ RateLimiter = (*SharedLimiter)(nil)
