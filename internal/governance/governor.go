// Package governance implements the human-in-the-loop controls around the
// hive's operational memory: the Governor gatekeeps every change request
// against a fixed rule chain, and Lockdown freezes the hive when it enters a
// crisis state.
package governance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/backlinkradio/hive/internal/audit"
	"github.com/backlinkradio/hive/internal/honeycomb"
)

// MinChangePayment is the minimum payment, in dollars, attached to an
// operational change request. It applies even to whitelisted requesters.
const MinChangePayment = 0.50

// MaxChangeTTLHours caps how long an operational change may live.
const MaxChangeTTLHours = 168

// defaultModifiers is the standing whitelist of identities allowed to
// request operational changes.
var defaultModifiers = []string{
	"apappas.pu@gmail.com",
	"fuzzywigg@hotmail.com",
	"andrew.pappas@nft2.me",
}

// constitutionalFiles are documents that can never be touched through the
// operational change path. Changing them takes a constitutional amendment.
var constitutionalFiles = map[string]bool{
	"config/lore/STATION_MANIFESTO.md": true,
	"config/lore/PERSONA_DYNAMIC.md":   true,
	"config/lore/MUSIC_LOGIC.md":       true,
}

// Denial reasons carried in a Verdict.
const (
	ReasonNotWhitelisted    = "requester_not_whitelisted"
	ReasonPaymentRequired   = "payment_required"
	ReasonInvalidScope      = "invalid_scope"
	ReasonBoundaryViolation = "constitutional_boundary_violation"
	ReasonTTLRequired       = "ttl_required"
)

// PaymentProof attaches evidence of payment to a change request.
type PaymentProof struct {
	TransactionID string
	Amount        float64
}

// Scope names the exact file and key a change request targets.
type Scope struct {
	File string
	Key  string
}

// ChangeRequest is one operational memory change request.
type ChangeRequest struct {
	RequesterEmail string
	Payment        *PaymentProof
	Scope          *Scope
	TTLHours       int
	Changes        map[string]any
}

// Verdict is the Governor's answer to a change request. A denial is a normal
// outcome, not an error; errors are reserved for infrastructure failures
// while applying an approved change.
type Verdict struct {
	Approved  bool
	Reason    string
	Message   string
	ChangeID  string
	ExpiresAt time.Time
}

// Clock provides the governor's time source.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now().UTC() }

// Governor enforces the rule chain over operational memory changes:
// identity, payment, scope, constitutional boundary, TTL. Approved changes
// are applied through the signed state manager and logged to the
// operational_changes stream.
type Governor struct {
	state     *honeycomb.Manager
	events    *audit.EventLog
	modifiers map[string]bool
	clock     Clock
}

// GovernorOption configures a Governor.
type GovernorOption func(*Governor)

// WithModifiers replaces the standing requester whitelist.
func WithModifiers(emails []string) GovernorOption {
	return func(g *Governor) {
		g.modifiers = make(map[string]bool, len(emails))
		for _, e := range emails {
			g.modifiers[strings.ToLower(strings.TrimSpace(e))] = true
		}
	}
}

// WithGovernorClock injects a time source for tests.
func WithGovernorClock(c Clock) GovernorOption {
	return func(g *Governor) {
		if c != nil {
			g.clock = c
		}
	}
}

// NewGovernor creates a Governor applying changes through the given state
// manager and logging them to the given event log.
func NewGovernor(state *honeycomb.Manager, events *audit.EventLog, opts ...GovernorOption) *Governor {
	g := &Governor{
		state:  state,
		events: events,
		clock:  wallClock{},
	}
	WithModifiers(defaultModifiers)(g)
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ModifyOperationalMemory runs a change request through the rule chain. The
// first failing rule produces a denial Verdict; only an approved request
// touches the state document.
func (g *Governor) ModifyOperationalMemory(ctx context.Context, req ChangeRequest) (Verdict, error) {
	requester := strings.ToLower(strings.TrimSpace(req.RequesterEmail))
	if !g.modifiers[requester] {
		return Verdict{
			Approved: false,
			Reason:   ReasonNotWhitelisted,
			Message:  "Contact the station owner for whitelist addition",
		}, nil
	}

	if req.Payment == nil || req.Payment.Amount < MinChangePayment {
		return Verdict{
			Approved: false,
			Reason:   ReasonPaymentRequired,
			Message:  fmt.Sprintf("Operational changes require $%.2f minimum payment", MinChangePayment),
		}, nil
	}

	if req.Scope == nil || req.Scope.File == "" || req.Scope.Key == "" {
		return Verdict{
			Approved: false,
			Reason:   ReasonInvalidScope,
			Message:  "Must specify exact file/key being modified",
		}, nil
	}

	if g.crossesConstitutionalBoundary(*req.Scope) {
		return Verdict{
			Approved: false,
			Reason:   ReasonBoundaryViolation,
			Message:  "Cannot modify Constitutional Memory via operational change",
		}, nil
	}

	if req.TTLHours <= 0 || req.TTLHours > MaxChangeTTLHours {
		return Verdict{
			Approved: false,
			Reason:   ReasonTTLRequired,
			Message:  fmt.Sprintf("Operational memory requires TTL (max %d hours)", MaxChangeTTLHours),
		}, nil
	}

	changeID, expiresAt, err := g.apply(ctx, requester, req)
	if err != nil {
		return Verdict{}, err
	}

	return Verdict{
		Approved:  true,
		ChangeID:  changeID,
		ExpiresAt: expiresAt,
	}, nil
}

// crossesConstitutionalBoundary detects attempts to reach constitutional
// memory through the operational path.
func (g *Governor) crossesConstitutionalBoundary(scope Scope) bool {
	if constitutionalFiles[scope.File] {
		return true
	}
	return strings.Contains(strings.ToLower(scope.Key), "manifesto")
}

// apply executes an approved change: the target key is replaced in the
// signed state document, tagged with its expiry, and the change is appended
// to the operational_changes stream.
func (g *Governor) apply(ctx context.Context, requester string, req ChangeRequest) (string, time.Time, error) {
	changeID := uuid.New().String()
	expiresAt := g.clock.Now().Add(time.Duration(req.TTLHours) * time.Hour)

	state, err := g.state.Read(ctx)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to read state for operational change: %w", err)
	}

	state.Data[req.Scope.Key] = map[string]any{
		"value":      req.Changes,
		"change_id":  changeID,
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
	}
	if err := g.state.Write(ctx, state.Data, requester); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to apply operational change: %w", err)
	}

	event := map[string]any{
		"change_id":  changeID,
		"requester":  requester,
		"payment_tx": req.Payment.TransactionID,
		"scope": map[string]any{
			"file": req.Scope.File,
			"key":  req.Scope.Key,
		},
		"ttl_hours":  req.TTLHours,
		"changes":    req.Changes,
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
	}
	if err := g.events.Append("operational_changes", event); err != nil {
		return "", time.Time{}, fmt.Errorf("change %s applied but audit append failed: %w", changeID, err)
	}

	return changeID, expiresAt, nil
}
