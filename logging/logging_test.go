package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)
	logger.SetLevel(LevelInfo)

	// Debug should be filtered
	logger.Debug("debug message")
	if buf.Len() > 0 {
		t.Error("debug message should be filtered at INFO level")
	}

	// Info should pass
	logger.Info("info message")
	if buf.Len() == 0 {
		t.Error("info message should be logged")
	}

	output := buf.String()
	if !strings.Contains(output, "INFO") {
		t.Error("log should contain INFO level")
	}
	if !strings.Contains(output, "info message") {
		t.Error("log should contain the message")
	}
}

func TestLogger_WithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New().WithComponent("coordinator")
	logger.SetOutput(&buf)

	logger.Info("test message")

	output := buf.String()
	if !strings.Contains(output, "[coordinator]") {
		t.Errorf("expected component 'coordinator' in log, got: %s", output)
	}
}

func TestLogger_WithWorker(t *testing.T) {
	var buf bytes.Buffer
	logger := New().WithWorker("indexer-3")
	logger.SetOutput(&buf)

	logger.Info("test message")

	output := buf.String()
	if !strings.Contains(output, "worker=indexer-3") {
		t.Errorf("expected worker tag in log, got: %s", output)
	}
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)

	logger.Info("claim stored", map[string]interface{}{
		"task": "task-42",
	})

	output := buf.String()
	if !strings.Contains(output, "task=task-42") {
		t.Errorf("expected field 'task=task-42' in log, got: %s", output)
	}
}

func TestLogger_FieldsSorted(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)

	logger.Info("msg", map[string]interface{}{
		"zeta":  1,
		"alpha": 2,
	})

	output := buf.String()
	if strings.Index(output, "alpha=") > strings.Index(output, "zeta=") {
		t.Errorf("expected fields in key order, got: %s", output)
	}
}

func TestLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := New().WithComponent("test")
	logger.SetOutput(&buf)

	logger.Info("hello world", map[string]interface{}{"key": "value"})

	output := buf.String()
	// Format: LEVEL TIMESTAMP [component] message key=value
	// Example: INFO  2026-02-05T04:00:00.000Z [test] hello world key=value
	if !strings.HasPrefix(output, "INFO ") {
		t.Errorf("expected line to start with 'INFO ', got: %s", output)
	}
	if !strings.Contains(output, "[test]") {
		t.Errorf("expected component [test], got: %s", output)
	}
	if !strings.Contains(output, "hello world") {
		t.Errorf("expected message, got: %s", output)
	}
	if !strings.Contains(output, "key=value") {
		t.Errorf("expected key=value, got: %s", output)
	}
}

func TestLogger_CycleTiming(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)

	logger.CycleStart("coordination")
	logger.CycleComplete("coordination", 10*time.Millisecond, 2)

	output := buf.String()
	if !strings.Contains(output, "cycle_start") {
		t.Error("expected cycle_start log")
	}
	if !strings.Contains(output, "cycle_complete") {
		t.Error("expected cycle_complete log")
	}
	if !strings.Contains(output, "duration=") {
		t.Error("expected duration in log")
	}
	if !strings.Contains(output, "assignments=2") {
		t.Error("expected assignment count in log")
	}
}

func TestLogger_Assignment(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)

	logger.Assignment("task-7", "worker-1", 0.8125)

	output := buf.String()
	if !strings.Contains(output, "task=task-7") || !strings.Contains(output, "worker=worker-1") {
		t.Errorf("expected task and worker fields, got: %s", output)
	}
	if !strings.Contains(output, "score=0.813") {
		t.Errorf("expected rounded score, got: %s", output)
	}
}

func TestLogger_StaleWorker(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)

	logger.StaleWorker("worker-9", time.Date(2026, 2, 5, 4, 0, 0, 0, time.UTC))

	output := buf.String()
	if !strings.Contains(output, "WARN") {
		t.Error("stale worker should be WARN level")
	}
	if !strings.Contains(output, "last_seen=2026-02-05T04:00:00Z") {
		t.Errorf("expected last_seen timestamp, got: %s", output)
	}
}
