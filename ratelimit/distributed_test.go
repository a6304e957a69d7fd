package ratelimit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/hivemesh/swarmd/bus"
)

func newSharedPair(t *testing.T) (*SharedLimiter, *SharedLimiter, bus.MessageBus) {
	t.Helper()

	b := bus.NewMemoryBus(bus.Config{})
	t.Cleanup(func() { b.Close() })

	a, err := NewSharedLimiter(SharedConfig{Bus: b, Origin: "coordinator-a"})
	if err != nil {
		t.Fatalf("NewSharedLimiter(a) error = %v", err)
	}
	t.Cleanup(func() { a.Close() })

	c, err := NewSharedLimiter(SharedConfig{Bus: b, Origin: "coordinator-b"})
	if err != nil {
		t.Fatalf("NewSharedLimiter(b) error = %v", err)
	}
	t.Cleanup(func() { c.Close() })

	return a, c, b
}

func waitForTotal(t *testing.T, l *SharedLimiter, resource string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cap := l.GetCapacity(resource); cap != nil && cap.Total == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	cap := l.GetCapacity(resource)
	t.Fatalf("capacity never reached %d, last seen %+v", want, cap)
}

func TestSharedLimiter_InvalidConfig(t *testing.T) {
	b := bus.NewMemoryBus(bus.Config{})
	defer b.Close()

	if _, err := NewSharedLimiter(SharedConfig{Origin: "x"}); err != ErrInvalidConfig {
		t.Errorf("missing bus: got %v, want ErrInvalidConfig", err)
	}
	if _, err := NewSharedLimiter(SharedConfig{Bus: b}); err != ErrInvalidConfig {
		t.Errorf("missing origin: got %v, want ErrInvalidConfig", err)
	}
}

func TestSharedLimiter_AcquireRelease(t *testing.T) {
	b := bus.NewMemoryBus(bus.Config{})
	defer b.Close()

	l, err := NewSharedLimiter(SharedConfig{Bus: b, Origin: "coordinator-a"})
	if err != nil {
		t.Fatalf("NewSharedLimiter() error = %v", err)
	}
	defer l.Close()

	l.SetCapacity(ResourceMarketplace, 1, time.Hour)

	if err := l.Acquire(context.Background(), ResourceMarketplace); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if l.TryAcquire(ResourceMarketplace) {
		t.Error("bucket should be empty")
	}
	l.Release(ResourceMarketplace)
	if !l.TryAcquire(ResourceMarketplace) {
		t.Error("token should be back after Release")
	}
}

func TestSharedLimiter_AnnounceReducedPropagates(t *testing.T) {
	a, c, _ := newSharedPair(t)

	a.SetCapacity(ResourceMarketplace, 100, time.Minute)
	c.SetCapacity(ResourceMarketplace, 100, time.Minute)

	a.AnnounceReduced(ResourceMarketplace, "marketplace returned 429")

	// Announcer cuts immediately.
	if cap := a.GetCapacity(ResourceMarketplace); cap.Total != 50 {
		t.Errorf("announcer Total = %d, want 50", cap.Total)
	}

	// Peer applies the broadcast cut.
	waitForTotal(t, c, ResourceMarketplace, 50)
}

func TestSharedLimiter_IgnoresOwnUpdates(t *testing.T) {
	b := bus.NewMemoryBus(bus.Config{})
	defer b.Close()

	l, err := NewSharedLimiter(SharedConfig{Bus: b, Origin: "coordinator-a"})
	if err != nil {
		t.Fatalf("NewSharedLimiter() error = %v", err)
	}
	defer l.Close()

	l.SetCapacity(ResourceMarketplace, 100, time.Minute)

	update := CapacityUpdate{
		Resource:    ResourceMarketplace,
		Origin:      "coordinator-a",
		NewCapacity: 1,
		Timestamp:   time.Now(),
	}
	data, _ := json.Marshal(update)
	if err := b.Publish(CapacitySubject, data); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if cap := l.GetCapacity(ResourceMarketplace); cap.Total != 100 {
		t.Errorf("Total = %d, own updates must be ignored", cap.Total)
	}
}

func TestSharedLimiter_IgnoresCapacityIncreases(t *testing.T) {
	a, c, _ := newSharedPair(t)

	a.SetCapacity(ResourceMarketplace, 50, time.Minute)
	c.SetCapacity(ResourceMarketplace, 50, time.Minute)

	update := CapacityUpdate{
		Resource:    ResourceMarketplace,
		Origin:      "coordinator-x",
		NewCapacity: 500,
		Timestamp:   time.Now(),
	}
	data, _ := json.Marshal(update)
	a.config.Bus.Publish(CapacitySubject, data)

	time.Sleep(100 * time.Millisecond)

	if cap := c.GetCapacity(ResourceMarketplace); cap.Total != 50 {
		t.Errorf("Total = %d, updates above the original must be ignored", cap.Total)
	}
}

func TestSharedLimiter_MalformedUpdateIgnored(t *testing.T) {
	b := bus.NewMemoryBus(bus.Config{})
	defer b.Close()

	l, err := NewSharedLimiter(SharedConfig{Bus: b, Origin: "coordinator-a"})
	if err != nil {
		t.Fatalf("NewSharedLimiter() error = %v", err)
	}
	defer l.Close()

	l.SetCapacity(ResourceMarketplace, 10, time.Minute)
	b.Publish(CapacitySubject, []byte("not json"))

	time.Sleep(50 * time.Millisecond)

	if cap := l.GetCapacity(ResourceMarketplace); cap.Total != 10 {
		t.Errorf("Total = %d, malformed updates must be ignored", cap.Total)
	}
}

func TestSharedLimiter_Recovery(t *testing.T) {
	b := bus.NewMemoryBus(bus.Config{})
	defer b.Close()

	l, err := NewSharedLimiter(SharedConfig{
		Bus:              b,
		Origin:           "coordinator-a",
		RecoveryInterval: 30 * time.Millisecond,
		RecoveryFactor:   10, // recover in one step
	})
	if err != nil {
		t.Fatalf("NewSharedLimiter() error = %v", err)
	}
	defer l.Close()

	l.SetCapacity(ResourceMarketplace, 100, time.Minute)
	l.AnnounceReduced(ResourceMarketplace, "upstream outage")

	if cap := l.GetCapacity(ResourceMarketplace); cap.Total != 50 {
		t.Fatalf("Total = %d after cut, want 50", cap.Total)
	}

	// Recovery is capped at the original capacity.
	waitForTotal(t, l, ResourceMarketplace, 100)
}

func TestSharedLimiter_OnCapacityChange(t *testing.T) {
	a, c, _ := newSharedPair(t)

	a.SetCapacity(ResourceMarketplace, 100, time.Minute)
	c.SetCapacity(ResourceMarketplace, 100, time.Minute)

	got := make(chan *CapacityUpdate, 1)
	c.OnCapacityChange(func(u *CapacityUpdate) {
		select {
		case got <- u:
		default:
		}
	})

	a.AnnounceReduced(ResourceMarketplace, "marketplace returned 429")

	select {
	case u := <-got:
		if u.Origin != "coordinator-a" || u.NewCapacity != 50 {
			t.Errorf("update = %+v", u)
		}
		if u.Reason != "marketplace returned 429" {
			t.Errorf("Reason = %q", u.Reason)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback never fired")
	}
}

func TestSharedConfig_Defaults(t *testing.T) {
	cfg := DefaultSharedConfig()
	if cfg.ReduceFactor != 0.5 {
		t.Errorf("ReduceFactor = %v, want 0.5", cfg.ReduceFactor)
	}
	if cfg.RecoveryInterval != 30*time.Second {
		t.Errorf("RecoveryInterval = %v, want 30s", cfg.RecoveryInterval)
	}
	if cfg.RecoveryFactor != 1.1 {
		t.Errorf("RecoveryFactor = %v, want 1.1", cfg.RecoveryFactor)
	}
}
