package state

import "testing"

// Unit tests for nats.go that don't require a NATS server.

func TestDefaultNATSStoreConfig(t *testing.T) {
	cfg := DefaultNATSStoreConfig()

	if cfg.Bucket != "swarm-state" {
		t.Errorf("bucket = %s, want swarm-state", cfg.Bucket)
	}
	if cfg.History != 1 {
		t.Errorf("history = %d, want 1", cfg.History)
	}
	if cfg.MaxValueSize != 1024*1024 {
		t.Errorf("max value size = %d, want 1MB", cfg.MaxValueSize)
	}
}

func TestNewNATSStore_NilConn(t *testing.T) {
	if _, err := NewNATSStore(NATSStoreConfig{Bucket: "test"}); err == nil {
		t.Error("expected error for nil connection")
	}
}
