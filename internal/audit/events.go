package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// EventLog appends governance events to fixed per-stream JSONL files under
// the honeycomb logs directory. Streams are append-only; there is no API to
// rewrite or delete prior events.
type EventLog struct {
	logsDir string
	clock   Clock
}

// Governance event streams. Writing to any other stream name is an error.
var eventStreams = map[string]string{
	"constitutional_amendments": "constitutional_amendments.jsonl",
	"memory_promotions":         "memory_promotions.jsonl",
	"alignment_overrides":       "alignment_overrides.jsonl",
	"erm_activations":           "erm_activations.jsonl",
	"operational_changes":       "operational_changes.jsonl",
}

// NewEventLog creates an event logger rooted at logsDir, creating the
// directory if needed. A nil clock selects wall-clock time.
func NewEventLog(logsDir string, clock Clock) (*EventLog, error) {
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory %s: %w", logsDir, err)
	}
	if clock == nil {
		clock = wallClock{}
	}
	return &EventLog{logsDir: logsDir, clock: clock}, nil
}

// Append records one event on the named stream.
func (l *EventLog) Append(stream string, data map[string]any) error {
	filename, ok := eventStreams[stream]
	if !ok {
		return fmt.Errorf("unknown event stream: %q", stream)
	}

	record := map[string]any{
		"timestamp":  l.clock.Now().Format(time.RFC3339),
		"event_type": stream,
		"data":       data,
	}
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	path := filepath.Join(l.logsDir, filename)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open event stream %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return f.Sync()
}
