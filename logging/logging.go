// Package logging provides structured console logging for swarm daemons.
// The durable cycle history lives in the runner state file; this package
// covers real-time output for operators watching a daemon.
package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logger provides structured logging to stdout.
type Logger struct {
	mu        sync.Mutex
	output    io.Writer
	minLevel  Level
	component string
	worker    string
}

// levelPriority maps levels to numeric priority for filtering.
var levelPriority = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// New creates a new Logger.
func New() *Logger {
	return &Logger{
		output:   os.Stdout,
		minLevel: LevelInfo,
	}
}

// WithComponent returns a new logger with the given component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		output:    l.output,
		minLevel:  l.minLevel,
		component: component,
		worker:    l.worker,
	}
}

// WithWorker returns a new logger tagged with a worker identity.
// Every line it writes carries worker=<name>.
func (l *Logger) WithWorker(worker string) *Logger {
	return &Logger{
		output:    l.output,
		minLevel:  l.minLevel,
		component: l.component,
		worker:    worker,
	}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.minLevel = level
}

// SetOutput sets the output writer (default: stdout).
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.log(LevelError, msg, fields...)
}

// formatFields formats a map of fields as key=value pairs in key order.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return " " + strings.Join(parts, " ")
}

// log writes a log entry: LEVEL TIMESTAMP [component] message key=value ...
func (l *Logger) log(level Level, msg string, fields ...map[string]interface{}) {
	if levelPriority[level] < levelPriority[l.minLevel] {
		return
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	var fieldStr string
	if len(fields) > 0 && fields[0] != nil {
		fieldStr = formatFields(fields[0])
	}
	if l.worker != "" {
		fieldStr = fmt.Sprintf(" worker=%s%s", l.worker, fieldStr)
	}

	var line string
	if l.component != "" {
		line = fmt.Sprintf("%-5s %s [%s] %s%s\n", level, timestamp, l.component, msg, fieldStr)
	} else {
		line = fmt.Sprintf("%-5s %s %s%s\n", level, timestamp, msg, fieldStr)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.Write([]byte(line))
}

// CycleStart logs the start of a periodic cycle.
func (l *Logger) CycleStart(kind string) {
	l.Info("cycle_start", map[string]interface{}{
		"kind": kind,
	})
}

// CycleComplete logs the completion of a periodic cycle.
func (l *Logger) CycleComplete(kind string, duration time.Duration, assignments int) {
	l.Info("cycle_complete", map[string]interface{}{
		"kind":        kind,
		"duration":    duration.String(),
		"assignments": assignments,
	})
}

// Assignment logs a task handed to a worker.
func (l *Logger) Assignment(taskID, worker string, score float64) {
	l.Info("assignment", map[string]interface{}{
		"task":   taskID,
		"worker": worker,
		"score":  fmt.Sprintf("%.3f", score),
	})
}

// ClaimConflict logs a task lost to another coordinator.
func (l *Logger) ClaimConflict(taskID string) {
	l.Debug("claim_conflict", map[string]interface{}{
		"task": taskID,
	})
}

// StaleWorker logs a worker whose heartbeat has gone quiet.
func (l *Logger) StaleWorker(worker string, lastSeen time.Time) {
	l.Warn("stale_worker", map[string]interface{}{
		"worker":    worker,
		"last_seen": lastSeen.UTC().Format(time.RFC3339),
	})
}
