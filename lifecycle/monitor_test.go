package lifecycle

import (
	"testing"
	"time"
)

func TestCheckHeartbeat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StaleThreshold = 600 * time.Second
	cfg.DeadThreshold = 1800 * time.Second
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		age  time.Duration
		want HeartbeatStatus
	}{
		{"fresh", 30 * time.Second, HeartbeatAlive},
		{"at stale boundary", 600 * time.Second, HeartbeatAlive},
		{"past stale", 601 * time.Second, HeartbeatStale},
		{"at dead boundary", 1800 * time.Second, HeartbeatStale},
		{"past dead", 2000 * time.Second, HeartbeatDead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewWorkerRecord("w1", TierUser)
			rec.LastHeartbeat = now.Add(-tt.age)
			if got := CheckHeartbeat(rec, cfg, now); got != tt.want {
				t.Errorf("CheckHeartbeat(age=%v) = %s, want %s", tt.age, got, tt.want)
			}
		})
	}

	t.Run("never seen", func(t *testing.T) {
		rec := NewWorkerRecord("w1", TierUser)
		if got := CheckHeartbeat(rec, cfg, now); got != HeartbeatUnknown {
			t.Errorf("CheckHeartbeat(no heartbeat) = %s, want %s", got, HeartbeatUnknown)
		}
	})
}

func TestCheckTaskTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TaskTimeout = time.Hour
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		state   State
		started time.Time
		want    bool
	}{
		{"working within limit", StateWorking, now.Add(-30 * time.Minute), false},
		{"working past limit", StateWorking, now.Add(-2 * time.Hour), true},
		{"idle ignored", StateIdle, now.Add(-2 * time.Hour), false},
		{"working without start time", StateWorking, time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewWorkerRecord("w1", TierUser)
			rec.State = tt.state
			rec.CurrentTaskStarted = tt.started
			if got := CheckTaskTimeout(rec, cfg, now); got != tt.want {
				t.Errorf("CheckTaskTimeout() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckBalance(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinCreditBalance = 0.01
	cfg.MinGasBalance = 0.0001

	tests := []struct {
		name   string
		credit float64
		gas    float64
		wantOK bool
	}{
		{"both healthy", 1.0, 0.5, true},
		{"credit low", 0.001, 0.5, false},
		{"gas low", 1.0, 0.00001, false},
		{"both low", 0, 0, false},
		{"exactly at minimums", 0.01, 0.0001, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewWorkerRecord("w1", TierUser)
			rec.CreditBalance = tt.credit
			rec.GasBalance = tt.gas
			if got := CheckBalance(rec, cfg); got.OK() != tt.wantOK {
				t.Errorf("CheckBalance() OK = %v, want %v (status %+v)", got.OK(), tt.wantOK, got)
			}
		})
	}
}

func TestUpdateBalance_NegativeLeavesUnchanged(t *testing.T) {
	rec := NewWorkerRecord("w1", TierUser)
	rec.CreditBalance = 1.5
	rec.GasBalance = 0.25

	UpdateBalance(rec, -1, 0.5)
	if rec.CreditBalance != 1.5 {
		t.Errorf("CreditBalance = %v, want unchanged 1.5", rec.CreditBalance)
	}
	if rec.GasBalance != 0.5 {
		t.Errorf("GasBalance = %v, want 0.5", rec.GasBalance)
	}

	UpdateBalance(rec, 2.0, -1)
	if rec.CreditBalance != 2.0 {
		t.Errorf("CreditBalance = %v, want 2.0", rec.CreditBalance)
	}
	if rec.GasBalance != 0.5 {
		t.Errorf("GasBalance = %v, want unchanged 0.5", rec.GasBalance)
	}
}
