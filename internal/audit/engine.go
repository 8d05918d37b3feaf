// Package audit records every gateway decision in an append-only trail and
// derives the hive's compliance posture from it.
//
// Each decision produces one Entry, held in an in-memory daily buffer and
// appended as a single self-contained JSON line to the durable constitutional
// log. The buffer is authoritative for "today"; the log file is never
// truncated or rewritten.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/backlinkradio/hive/pkg/constitution"
)

// Clock provides the engine's time source.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now().UTC() }

// Entry is one immutable audit record: the action as proposed, the gateway's
// verdict, and the action as finally permitted.
type Entry struct {
	ID             string              `json:"id"`
	Timestamp      time.Time           `json:"timestamp"`
	BeeType        string              `json:"bee_type"`
	ActionType     string              `json:"action_type"`
	DecisionStatus constitution.Status `json:"decision_status"`
	DecisionReason string              `json:"decision_reason"`
	OriginalAction constitution.Action `json:"original_action"`
	FinalAction    constitution.Action `json:"final_action"`
}

// Report is the daily compliance summary derived from the in-memory buffer.
type Report struct {
	Date                 string  `json:"date"`
	TotalActions         int     `json:"total_actions"`
	ComplianceScore      float64 `json:"compliance_score"` // percentage, rounded to 2 decimals
	ViolationsBlocked    int     `json:"violations_blocked"`
	ModificationsApplied int     `json:"modifications_applied"`
	ViolationDetails     []Entry `json:"violation_details"`
	Status               string  `json:"status"` // HEALTHY or AT_RISK
}

// Health labels for the daily report.
const (
	StatusHealthy = "HEALTHY"
	StatusAtRisk  = "AT_RISK"

	// healthThreshold is the minimum compliance score for a HEALTHY label.
	healthThreshold = 0.95
)

// Engine is the audit engine. One long-lived instance per process owns the
// daily buffer; access is serialized for concurrent bees.
type Engine struct {
	logPath string
	clock   Clock

	mu           sync.Mutex
	actionsToday []Entry
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock injects a time source for tests.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// NewEngine creates an audit engine appending to the given JSONL file.
// The file is created empty if it does not exist yet.
func NewEngine(logPath string, opts ...Option) (*Engine, error) {
	e := &Engine{
		logPath: logPath,
		clock:   wallClock{},
	}
	for _, opt := range opts {
		opt(e)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log %s: %w", logPath, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close audit log %s: %w", logPath, err)
	}
	return e, nil
}

// Log records an (action, decision) pair. The entry always lands in the
// in-memory daily buffer so the current-session compliance score stays
// accurate; a durable append failure is returned to the caller rather than
// swallowed.
func (e *Engine) Log(beeType string, action constitution.Action, decision constitution.Decision) error {
	entry := Entry{
		ID:             uuid.New().String(),
		Timestamp:      e.clock.Now(),
		BeeType:        beeType,
		ActionType:     action.Type(),
		DecisionStatus: decision.Status,
		DecisionReason: decision.Reason,
		OriginalAction: action,
		FinalAction:    decision.Action,
	}

	e.mu.Lock()
	e.actionsToday = append(e.actionsToday, entry)
	e.mu.Unlock()

	log.Printf("[Audit] Logged action: %s - %s", beeType, decision.Status)

	if err := e.appendLine(entry); err != nil {
		return fmt.Errorf("durable audit append failed (in-memory record retained): %w", err)
	}
	return nil
}

// appendLine durably appends one JSON record to the log file. Records are
// never reordered or rewritten; each line is independently parseable.
func (e *Engine) appendLine(entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	f, err := os.OpenFile(e.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return err
	}
	return f.Sync()
}

// ComplianceScore returns (approved+modified)/total for the daily buffer.
// An empty buffer is vacuously compliant and scores 1.0.
func (e *Engine) ComplianceScore() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return scoreEntries(e.actionsToday)
}

func scoreEntries(entries []Entry) float64 {
	if len(entries) == 0 {
		return 1.0
	}
	compliant := 0
	for _, a := range entries {
		if a.DecisionStatus == constitution.StatusApprove || a.DecisionStatus == constitution.StatusModify {
			compliant++
		}
	}
	return float64(compliant) / float64(len(entries))
}

// DailyReport summarizes the current in-memory buffer. It does not read the
// durable log back; the buffer is the in-process source of truth for today.
func (e *Engine) DailyReport() Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	return buildReport(e.actionsToday, e.clock.Now())
}

func buildReport(entries []Entry, now time.Time) Report {
	score := scoreEntries(entries)

	violations := make([]Entry, 0)
	modifications := 0
	for _, a := range entries {
		switch a.DecisionStatus {
		case constitution.StatusBlock:
			violations = append(violations, a)
		case constitution.StatusModify:
			modifications++
		}
	}

	status := StatusHealthy
	if score < healthThreshold {
		status = StatusAtRisk
	}

	// The report carries the score as a rounded percentage; the score API
	// itself stays a 0..1 ratio.
	return Report{
		Date:                 now.Format("2006-01-02"),
		TotalActions:         len(entries),
		ComplianceScore:      float64(int(score*100*100+0.5)) / 100,
		ViolationsBlocked:    len(violations),
		ModificationsApplied: modifications,
		ViolationDetails:     violations,
		Status:               status,
	}
}

// ClearDailyBuffer resets the in-memory buffer only. The durable log is
// append-only and is never touched.
func (e *Engine) ClearDailyBuffer() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.actionsToday = nil
}

// ReplayDay reads entries for the given day (YYYY-MM-DD, UTC) from a durable
// log stream and builds the report they imply. Unparsable lines (typically a
// final line truncated by a crash) are skipped so partial history remains
// recoverable.
func ReplayDay(r io.Reader, day string, now time.Time) (Report, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var entries []Entry
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			log.Printf("[Audit] Skipping unparsable log line: %v", err)
			continue
		}
		if entry.Timestamp.UTC().Format("2006-01-02") == day {
			entries = append(entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return Report{}, fmt.Errorf("failed to scan audit log: %w", err)
	}

	report := buildReport(entries, now)
	report.Date = day
	return report, nil
}
