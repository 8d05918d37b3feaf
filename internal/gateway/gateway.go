// Package gateway implements the policy gateway: the sole arbiter of whether
// a proposed bee action may take effect, and the only place allowed to
// rewrite an action into compliance.
//
// The gateway runs a fixed, ordered chain of principle checks. Each check
// returns APPROVE (no opinion), BLOCK (terminal), or MODIFY (rewrites the
// action and continues). Evaluation short-circuits on the first BLOCK; check
// counters are committed only once a non-blocking outcome is reached.
package gateway

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/backlinkradio/hive/pkg/constitution"
)

// Clock provides the gateway's time source. Inject a stub in tests to drive
// the sponsor rate-limit window.
type Clock interface {
	Now() time.Time
}

// wallClock is the default clock.
type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now().UTC() }

// checkFunc is a single principle check. Checks do not count actions against
// quotas; that happens in commit, after the whole chain has passed. The one
// permitted mutation is the lazy rate-window reset, which is safe to apply
// even for an action that later blocks.
type checkFunc func(constitution.Action) checkResult

type checkResult struct {
	status constitution.Status
	action constitution.Action // set when status == MODIFY
	reason string
}

func approve() checkResult {
	return checkResult{status: constitution.StatusApprove}
}

func block(reason string) checkResult {
	return checkResult{status: constitution.StatusBlock, reason: reason}
}

func modify(a constitution.Action, reason string) checkResult {
	return checkResult{status: constitution.StatusModify, action: a, reason: reason}
}

// namedCheck pairs a check with its principle name for logging.
type namedCheck struct {
	name string
	fn   checkFunc
}

// Gateway evaluates bee actions against the constitutional principles.
// One long-lived Gateway per process owns the sponsor-mention counter; all
// access is serialized so two concurrent sponsored announcements cannot both
// observe the limit as not-yet-reached.
type Gateway struct {
	cfg    constitution.Config
	clock  Clock
	checks []namedCheck

	mu                      sync.Mutex
	sponsorMentionsThisHour int
	lastHourReset           time.Time
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithClock injects a time source. Used by tests to simulate the passage of
// the rate-limit window.
func WithClock(c Clock) Option {
	return func(g *Gateway) {
		if c != nil {
			g.clock = c
		}
	}
}

// New creates a gateway enforcing the given thresholds.
func New(cfg constitution.Config, opts ...Option) *Gateway {
	g := &Gateway{
		cfg:   cfg,
		clock: wallClock{},
	}
	for _, opt := range opts {
		opt(g)
	}
	g.lastHourReset = g.clock.Now()

	// Fixed evaluation order. Changing this order changes which reason a
	// multiply-non-compliant action is blocked for.
	g.checks = []namedCheck{
		{"artist_first", g.checkArtistFirst},
		{"transparency", g.checkTransparency},
		{"privacy_respecting", g.checkPrivacy},
		{"ad_free_integrity", g.checkSponsorRateLimit},
		{"community_first", g.checkCommunityFirst},
	}
	return g
}

// Evaluate runs the action through the principle chain and returns the
// verdict. A BLOCK decision carries the original action untouched; a MODIFY
// decision carries the rewritten action and the concatenated reasons of every
// check that fired, in chain order.
func (g *Gateway) Evaluate(action constitution.Action) constitution.Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	log.Printf("[Gateway] Evaluating action type=%q", action.Type())

	current := action
	var modReasons []string

	for _, check := range g.checks {
		result := check.fn(current)
		switch result.status {
		case constitution.StatusBlock:
			log.Printf("[Gateway] Action BLOCKED by %s: %s", check.name, result.reason)
			return constitution.Decision{
				Status:    constitution.StatusBlock,
				Action:    action,
				Reason:    result.reason,
				Timestamp: g.clock.Now(),
			}
		case constitution.StatusModify:
			log.Printf("[Gateway] Action MODIFIED by %s: %s", check.name, result.reason)
			current = result.action
			modReasons = append(modReasons, result.reason)
		}
	}

	// The whole chain passed: commit counter mutations exactly once.
	g.commit(current)

	if len(modReasons) > 0 {
		return constitution.Decision{
			Status:    constitution.StatusModify,
			Action:    current,
			Reason:    strings.Join(modReasons, "; "),
			Timestamp: g.clock.Now(),
		}
	}

	return constitution.Decision{
		Status:    constitution.StatusApprove,
		Action:    current,
		Reason:    "Compliant with all principles",
		Timestamp: g.clock.Now(),
	}
}

// commit updates gateway counters after a non-blocking outcome.
// Caller holds g.mu.
func (g *Gateway) commit(action constitution.Action) {
	if action.Type() == constitution.ActionBroadcastAnnouncement && action.Bool("is_sponsored") {
		g.sponsorMentionsThisHour++
	}
}

// checkArtistFirst enforces Principle 1: at least the configured minimum
// share of deal revenue flows to artists. Exactly-at-threshold is compliant.
func (g *Gateway) checkArtistFirst(action constitution.Action) checkResult {
	t := action.Type()
	if t != constitution.ActionDealNegotiation && t != constitution.ActionPayout {
		return approve()
	}

	totalRevenue := action.Float("total_revenue")
	if totalRevenue <= 0 {
		return approve()
	}

	share := action.Float("artist_revenue") / totalRevenue
	if share < g.cfg.ArtistMinShare {
		return block(fmt.Sprintf("Artist share %.2f%% is below minimum %.0f%%",
			share*100, g.cfg.ArtistMinShare*100))
	}
	return approve()
}

// checkTransparency enforces Principle 2: sponsored content must carry the
// disclosure tag. Missing tags are auto-corrected by prepending.
func (g *Gateway) checkTransparency(action constitution.Action) checkResult {
	t := action.Type()
	if t != constitution.ActionSocialPost && t != constitution.ActionBroadcastAnnouncement {
		return approve()
	}
	if !action.Bool("is_sponsored") {
		return approve()
	}

	content := action.Str("content")
	if strings.Contains(content, constitution.PartnerTag) {
		return approve()
	}

	fixed := action.Clone()
	fixed["content"] = constitution.PartnerTag + " " + content
	return modify(fixed, "Added missing "+constitution.PartnerTag+" tag to sponsored content")
}

// checkPrivacy enforces Principle 3: PII processing requires explicit consent.
func (g *Gateway) checkPrivacy(action constitution.Action) checkResult {
	t := action.Type()
	if t != constitution.ActionDataProcessing && t != constitution.ActionListenerAnalysis {
		return approve()
	}

	if action.Bool("requires_pii") && !action.Bool("has_explicit_consent") {
		return block("Action requires PII but lacks explicit user consent")
	}
	return approve()
}

// checkSponsorRateLimit enforces Principle 4: at most the configured number
// of sponsored broadcast mentions per rolling hour. The window resets lazily
// when more than one hour has elapsed since the last reset.
func (g *Gateway) checkSponsorRateLimit(action constitution.Action) checkResult {
	if action.Type() != constitution.ActionBroadcastAnnouncement || !action.Bool("is_sponsored") {
		return approve()
	}

	now := g.clock.Now()
	if now.Sub(g.lastHourReset) > time.Hour {
		g.sponsorMentionsThisHour = 0
		g.lastHourReset = now
	}

	if g.sponsorMentionsThisHour >= g.cfg.MaxSponsorMentionsPerHour {
		return block("Hourly sponsor mention limit exceeded")
	}
	return approve()
}

// checkCommunityFirst enforces Principle 5: content strategies that chase
// virality at the cost of listener retention are blocked.
func (g *Gateway) checkCommunityFirst(action constitution.Action) checkResult {
	if action.Type() != constitution.ActionContentStrategy {
		return approve()
	}

	virality := action.Float("projected_virality")
	retention := action.Float("projected_retention")

	if virality > g.cfg.HighViralityThreshold && retention < g.cfg.MinRetentionFloor {
		return block("Action prioritizes virality over community retention")
	}
	return approve()
}
