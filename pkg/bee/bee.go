// Package bee defines the contract every hive agent follows: all
// state-changing intents are routed through a Guard, the single choke point
// that evaluates an action against the constitution and audits the verdict
// before the agent may execute its side effect.
package bee

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/backlinkradio/hive/internal/audit"
	"github.com/backlinkradio/hive/internal/gateway"
	"github.com/backlinkradio/hive/pkg/constitution"
)

// Bee is an independent unit of task-specific automation. Implementations
// construct candidate actions and must route every one of them through their
// Guard's SafeAction before acting on it.
type Bee interface {
	// Type returns the bee's type tag used in audit entries
	// (e.g. "marketing_bee").
	Type() string

	// Run executes the bee's main loop until the context is cancelled.
	Run(ctx context.Context) error
}

// BlockedError is returned by SafeAction when the gateway blocks an action.
// The action did not happen; the bee must surface the error or retry with a
// revised action, never proceed as if it executed.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("constitutional violation (blocked): %s", e.Reason)
}

// IsBlocked reports whether err is a gateway block.
func IsBlocked(err error) bool {
	var blocked *BlockedError
	return errors.As(err, &blocked)
}

// Guard composes the policy gateway and the audit engine into the
// safe-action contract. One Guard per bee; the gateway and audit engine
// behind it are shared, long-lived process singletons wired at startup.
type Guard struct {
	beeType string
	gateway *gateway.Gateway
	audit   *audit.Engine
}

// NewGuard creates the safe-action wrapper for a bee.
func NewGuard(beeType string, gw *gateway.Gateway, engine *audit.Engine) *Guard {
	return &Guard{
		beeType: beeType,
		gateway: gw,
		audit:   engine,
	}
}

// SafeAction evaluates the action and records the decision, then either
// returns the (possibly rewritten) action for the bee to execute, or a
// *BlockedError carrying the gateway's reason.
//
// Every decision is audited, including blocks. A durable audit append
// failure is logged loudly but does not turn an approved action into a
// failure: the in-memory audit record is already retained, and refusing the
// action would punish the bee for a disk hiccup.
func (g *Guard) SafeAction(action constitution.Action) (constitution.Action, error) {
	decision := g.gateway.Evaluate(action)

	if err := g.audit.Log(g.beeType, action, decision); err != nil {
		log.Printf("[Guard] WARNING: %v", err)
	}

	if decision.Blocked() {
		return nil, &BlockedError{Reason: decision.Reason}
	}
	return decision.Action, nil
}
