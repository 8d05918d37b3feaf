// Package constitution provides the shared types for the hive's governance
// layer. Every bee action is represented as an untyped Action record, and
// every gateway verdict as a Decision. The package also carries the principle
// thresholds the gateway enforces.
//
// Actions are deliberately schemaless: each principle check reads only the
// fields it cares about and treats a missing field as "does not apply".
package constitution

import (
	"fmt"
	"time"
)

// Action is an intended operation proposed by a bee. The only required field
// is "type", which selects the principle checks that apply. All other fields
// are check-specific.
type Action map[string]any

// Well-known action types.
const (
	ActionDealNegotiation       = "deal_negotiation"
	ActionPayout                = "payout"
	ActionSocialPost            = "social_post"
	ActionBroadcastAnnouncement = "broadcast_announcement"
	ActionDataProcessing        = "data_processing"
	ActionListenerAnalysis      = "listener_analysis"
	ActionContentStrategy       = "content_strategy"
)

// PartnerTag is the mandatory disclosure marker for sponsored content.
const PartnerTag = "[PARTNER]"

// Type returns the action's type tag, or "" if absent.
func (a Action) Type() string {
	return a.Str("type")
}

// Str returns the named field as a string, or "" if absent or not a string.
func (a Action) Str(key string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	return ""
}

// Float returns the named field as a float64, or 0 if absent.
// JSON numbers decode as float64; int values set in Go code are converted.
func (a Action) Float(key string) float64 {
	switch v := a[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// Bool returns the named field as a bool, or false if absent or not a bool.
func (a Action) Bool(key string) bool {
	if v, ok := a[key].(bool); ok {
		return v
	}
	return false
}

// Clone returns a shallow copy of the action. Checks that rewrite an action
// must clone first so a blocked action is returned to the caller unmodified.
func (a Action) Clone() Action {
	c := make(Action, len(a))
	for k, v := range a {
		c[k] = v
	}
	return c
}

// Status is the gateway's verdict on an action.
type Status string

const (
	// StatusApprove indicates the action is compliant and may proceed unchanged.
	StatusApprove Status = "APPROVE"

	// StatusBlock indicates the action violates a principle and must not execute.
	StatusBlock Status = "BLOCK"

	// StatusModify indicates the action was rewritten into compliance and the
	// rewritten form may proceed.
	StatusModify Status = "MODIFY"
)

// Validate checks if the Status is a valid enum value.
func (s Status) Validate() error {
	switch s {
	case StatusApprove, StatusBlock, StatusModify:
		return nil
	default:
		return fmt.Errorf("unknown decision status: %q", s)
	}
}

// Decision is the gateway's verdict for a single evaluated action.
//
// Invariants: a BLOCK decision carries the original, unmodified action; a
// MODIFY decision carries the action after all rewrites, differing from the
// input only in the fields the triggering checks rewrote.
type Decision struct {
	Status    Status    `json:"status"`
	Action    Action    `json:"action"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// Blocked reports whether the decision forbids execution.
func (d Decision) Blocked() bool {
	return d.Status == StatusBlock
}

// Config holds the principle thresholds enforced by the gateway.
type Config struct {
	// ArtistMinShare is the minimum fraction of deal revenue that must flow
	// to artists. Exactly-at-threshold is compliant.
	ArtistMinShare float64

	// MaxSponsorMentionsPerHour caps sponsored broadcast announcements per
	// rolling hour.
	MaxSponsorMentionsPerHour int

	// HighViralityThreshold and MinRetentionFloor define the community-first
	// rule: content strategies above the virality threshold AND below the
	// retention floor are blocked.
	HighViralityThreshold float64
	MinRetentionFloor     float64
}

// DefaultConfig returns the constitution's standing thresholds.
func DefaultConfig() Config {
	return Config{
		ArtistMinShare:            0.50,
		MaxSponsorMentionsPerHour: 1,
		HighViralityThreshold:     0.8,
		MinRetentionFloor:         0.3,
	}
}
