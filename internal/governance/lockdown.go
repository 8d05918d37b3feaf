package governance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/backlinkradio/hive/internal/audit"
	"github.com/backlinkradio/hive/internal/honeycomb"
)

// Lockdown drives the hive into emergency reconstitution: all bee activity
// is halted through state flags, memory promotion and mutation are frozen,
// the current state artifact is preserved as forensic evidence, and the
// activation is recorded on the erm_activations stream.
type Lockdown struct {
	state   *honeycomb.Manager
	store   honeycomb.Store
	events  *audit.EventLog
	logsDir string
	clock   Clock
}

// NewLockdown creates the emergency reconstitution trigger. The store is the
// same backend the manager writes through; it is read directly to snapshot
// the raw artifact, signature and all.
func NewLockdown(state *honeycomb.Manager, store honeycomb.Store, events *audit.EventLog, logsDir string, clock Clock) *Lockdown {
	if clock == nil {
		clock = wallClock{}
	}
	return &Lockdown{
		state:   state,
		store:   store,
		events:  events,
		logsDir: logsDir,
		clock:   clock,
	}
}

// Activate enters emergency reconstitution mode. The halt flags, the memory
// freeze, and the mutation ban go out in one signed state write so a crash
// mid-activation cannot leave the hive half-frozen.
func (l *Lockdown) Activate(ctx context.Context, triggerReport map[string]any) error {
	log.Printf("[Governance] EMERGENCY RECONSTITUTION MODE ACTIVATED")

	now := l.clock.Now().UTC().Format(time.RFC3339)

	state, err := l.state.Read(ctx)
	if err != nil {
		return fmt.Errorf("failed to read state for lockdown: %w", err)
	}

	state.Data["hive_status"] = "EMERGENCY_RECONSTITUTION"
	state.Data["queen_status"] = "halted"
	state.Data["broadcast_status"] = "suspended"
	state.Data["erm_activated_at"] = now
	state.Data["memory_promotion_frozen"] = true
	state.Data["frozen_at"] = now
	state.Data["mutations_allowed"] = false
	state.Data["diagnostic_mode"] = true

	if err := l.state.Write(ctx, state.Data, "emergency_reconstitution"); err != nil {
		return fmt.Errorf("failed to write lockdown state: %w", err)
	}

	if err := l.snapshotState(ctx); err != nil {
		// Evidence preservation is best-effort; the lockdown itself already
		// took effect through the state write above.
		log.Printf("[Governance] Warning: failed to preserve state snapshot: %v", err)
	}

	if err := l.events.Append("erm_activations", map[string]any{
		"action":         "activate",
		"trigger_report": triggerReport,
	}); err != nil {
		return fmt.Errorf("lockdown active but audit append failed: %w", err)
	}

	log.Printf("[Governance] ERM activation complete, awaiting human intervention")
	return nil
}

// snapshotState copies the raw state artifact into the logs directory as
// forensic evidence. A missing artifact is not an error; there is simply
// nothing to preserve.
func (l *Lockdown) snapshotState(ctx context.Context) error {
	raw, err := l.store.Read(ctx, honeycomb.StateDocument)
	if err != nil {
		if errors.Is(err, honeycomb.ErrNotFound) {
			return nil
		}
		return err
	}

	name := fmt.Sprintf("state_snapshot_%d.json", l.clock.Now().UTC().Unix())
	return os.WriteFile(filepath.Join(l.logsDir, name), raw, 0o644)
}
