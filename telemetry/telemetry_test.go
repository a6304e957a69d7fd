package telemetry

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func TestNoopExporter(t *testing.T) {
	exp := NewNoopExporter()

	// Should not panic
	exp.LogEvent(EventCoordination, map[string]interface{}{"assignments": 2})

	if err := exp.Flush(); err != nil {
		t.Errorf("Flush() error = %v", err)
	}
	if err := exp.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestFileExporter(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "telemetry.jsonl")

	exp, err := NewFileExporter(path)
	if err != nil {
		t.Fatalf("NewFileExporter() error = %v", err)
	}
	defer exp.Close()

	exp.LogEvent(EventCoordination, map[string]interface{}{"assignments": 3})
	exp.LogEvent(EventHealth, map[string]interface{}{"stale": 1})
	exp.Flush()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty file")
	}

	lines := 0
	for _, b := range data {
		if b == '\n' {
			lines++
		}
	}
	if lines != 2 {
		t.Errorf("expected 2 lines, got %d", lines)
	}

	// First line decodes back to the event
	var ev Event
	if err := json.Unmarshal(data[:bytes.IndexByte(data, '\n')], &ev); err != nil {
		t.Fatalf("Unmarshal first line: %v", err)
	}
	if ev.Name != EventCoordination {
		t.Errorf("event name = %q, want %q", ev.Name, EventCoordination)
	}
	if ev.Timestamp.IsZero() {
		t.Error("event timestamp should be set")
	}
}

func TestHTTPExporterFlush(t *testing.T) {
	var received atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var events []Event
		if err := json.NewDecoder(r.Body).Decode(&events); err != nil {
			t.Errorf("decode batch: %v", err)
		}
		received.Add(int64(len(events)))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	exp := NewHTTPExporter(srv.URL)
	exp.LogEvent(EventCoordination, map[string]interface{}{"assignments": 1})
	exp.LogEvent(EventPaused, map[string]interface{}{"failures": 3})

	if err := exp.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if got := received.Load(); got != 2 {
		t.Errorf("endpoint received %d events, want 2", got)
	}

	// Buffer is drained: a second flush sends nothing new.
	if err := exp.Flush(); err != nil {
		t.Fatalf("second Flush() error = %v", err)
	}
	if got := received.Load(); got != 2 {
		t.Errorf("endpoint received %d events after empty flush, want 2", got)
	}
}

func TestHTTPExporterErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	exp := NewHTTPExporter(srv.URL)
	exp.LogEvent(EventHealth, nil)

	if err := exp.Flush(); err == nil {
		t.Error("Flush() should fail on a 500 response")
	}
}

func TestNewExporter(t *testing.T) {
	tests := []struct {
		protocol string
		wantErr  bool
	}{
		{"noop", false},
		{"", false},
		{"unknown", true},
	}

	for _, tt := range tests {
		t.Run(tt.protocol, func(t *testing.T) {
			exp, err := NewExporter(tt.protocol, "")
			if (err != nil) != tt.wantErr {
				t.Errorf("NewExporter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if exp != nil {
				exp.Close()
			}
		})
	}
}
