package gateway

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backlinkradio/hive/pkg/constitution"
)

// stubClock is a manually-advanced clock for rate-limit window tests.
type stubClock struct {
	now time.Time
}

func (c *stubClock) Now() time.Time { return c.now }

func (c *stubClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestGateway(t *testing.T) (*Gateway, *stubClock) {
	t.Helper()
	clock := &stubClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return New(constitution.DefaultConfig(), WithClock(clock)), clock
}

func TestEvaluate_ArtistShareBelowMinimum_Blocks(t *testing.T) {
	g, _ := newTestGateway(t)

	action := constitution.Action{
		"type":           constitution.ActionDealNegotiation,
		"total_revenue":  1000.0,
		"artist_revenue": 400.0, // 40% < 50%
	}

	decision := g.Evaluate(action)

	assert.Equal(t, constitution.StatusBlock, decision.Status)
	assert.Contains(t, decision.Reason, "below minimum")
	// BLOCK must carry the original action untouched.
	assert.Equal(t, 400.0, decision.Action.Float("artist_revenue"))
}

func TestEvaluate_ArtistShareExactlyAtThreshold_Approves(t *testing.T) {
	g, _ := newTestGateway(t)

	action := constitution.Action{
		"type":           constitution.ActionPayout,
		"total_revenue":  1000.0,
		"artist_revenue": 500.0, // exactly 50%
	}

	decision := g.Evaluate(action)
	assert.Equal(t, constitution.StatusApprove, decision.Status)
}

func TestEvaluate_ArtistShareAboveThreshold_Approves(t *testing.T) {
	g, _ := newTestGateway(t)

	action := constitution.Action{
		"type":           constitution.ActionDealNegotiation,
		"total_revenue":  1000.0,
		"artist_revenue": 600.0,
	}

	decision := g.Evaluate(action)
	assert.Equal(t, constitution.StatusApprove, decision.Status)
	assert.Equal(t, "Compliant with all principles", decision.Reason)
}

func TestEvaluate_ZeroRevenue_RuleDoesNotApply(t *testing.T) {
	g, _ := newTestGateway(t)

	// No revenue fields at all: the check treats absence as "does not apply".
	decision := g.Evaluate(constitution.Action{"type": constitution.ActionDealNegotiation})
	assert.Equal(t, constitution.StatusApprove, decision.Status)
}

func TestEvaluate_SponsoredPostWithoutTag_ModifiesAndPrepends(t *testing.T) {
	g, _ := newTestGateway(t)

	original := constitution.Action{
		"type":         constitution.ActionSocialPost,
		"content":      "Check out this product!",
		"is_sponsored": true,
	}

	decision := g.Evaluate(original)

	require.Equal(t, constitution.StatusModify, decision.Status)
	assert.True(t, strings.HasPrefix(decision.Action.Str("content"), constitution.PartnerTag+" "))
	assert.Contains(t, decision.Reason, "[PARTNER]")

	// The caller's action record must not have been mutated in place.
	assert.Equal(t, "Check out this product!", original.Str("content"))
}

func TestEvaluate_SponsoredPostWithTag_Idempotent(t *testing.T) {
	g, _ := newTestGateway(t)

	first := g.Evaluate(constitution.Action{
		"type":         constitution.ActionSocialPost,
		"content":      "Check out this product!",
		"is_sponsored": true,
	})
	require.Equal(t, constitution.StatusModify, first.Status)

	// Re-evaluating the already-tagged content approves it unchanged.
	second := g.Evaluate(first.Action)
	assert.Equal(t, constitution.StatusApprove, second.Status)
	assert.Equal(t, first.Action.Str("content"), second.Action.Str("content"))
}

func TestEvaluate_UnsponsoredPost_TagNotRequired(t *testing.T) {
	g, _ := newTestGateway(t)

	decision := g.Evaluate(constitution.Action{
		"type":    constitution.ActionSocialPost,
		"content": "Just a normal post",
	})
	assert.Equal(t, constitution.StatusApprove, decision.Status)
}

func TestEvaluate_PIIWithoutConsent_Blocks(t *testing.T) {
	g, _ := newTestGateway(t)

	decision := g.Evaluate(constitution.Action{
		"type":                 constitution.ActionDataProcessing,
		"requires_pii":         true,
		"has_explicit_consent": false,
	})
	assert.Equal(t, constitution.StatusBlock, decision.Status)
	assert.Contains(t, decision.Reason, "consent")
}

func TestEvaluate_PIIWithConsent_Approves(t *testing.T) {
	g, _ := newTestGateway(t)

	decision := g.Evaluate(constitution.Action{
		"type":                 constitution.ActionListenerAnalysis,
		"requires_pii":         true,
		"has_explicit_consent": true,
	})
	assert.Equal(t, constitution.StatusApprove, decision.Status)
}

func sponsoredAnnouncement() constitution.Action {
	return constitution.Action{
		"type":         constitution.ActionBroadcastAnnouncement,
		"content":      constitution.PartnerTag + " Tonight's show is supported by SMTP.eth",
		"is_sponsored": true,
	}
}

func TestEvaluate_SponsorRateLimit_SecondMentionInHourBlocks(t *testing.T) {
	g, _ := newTestGateway(t)

	first := g.Evaluate(sponsoredAnnouncement())
	require.Equal(t, constitution.StatusApprove, first.Status)

	second := g.Evaluate(sponsoredAnnouncement())
	assert.Equal(t, constitution.StatusBlock, second.Status)
	assert.Contains(t, second.Reason, "limit exceeded")
}

func TestEvaluate_SponsorRateLimit_WindowResetsAfterAnHour(t *testing.T) {
	g, clock := newTestGateway(t)

	require.Equal(t, constitution.StatusApprove, g.Evaluate(sponsoredAnnouncement()).Status)
	require.Equal(t, constitution.StatusBlock, g.Evaluate(sponsoredAnnouncement()).Status)

	// Strictly more than one hour must elapse before the counter resets.
	clock.Advance(time.Hour + time.Second)

	decision := g.Evaluate(sponsoredAnnouncement())
	assert.Equal(t, constitution.StatusApprove, decision.Status)
}

func TestEvaluate_BlockedAnnouncement_DoesNotConsumeQuota(t *testing.T) {
	g, clock := newTestGateway(t)

	require.Equal(t, constitution.StatusApprove, g.Evaluate(sponsoredAnnouncement()).Status)

	// A PII block earlier in some other action must not touch the counter,
	// and a blocked announcement itself must not increment it either.
	require.Equal(t, constitution.StatusBlock, g.Evaluate(sponsoredAnnouncement()).Status)
	require.Equal(t, constitution.StatusBlock, g.Evaluate(sponsoredAnnouncement()).Status)

	clock.Advance(time.Hour + time.Minute)
	assert.Equal(t, constitution.StatusApprove, g.Evaluate(sponsoredAnnouncement()).Status)
}

func TestEvaluate_UntaggedSponsoredAnnouncement_ModifiedThenCounted(t *testing.T) {
	g, _ := newTestGateway(t)

	// First announcement lacks the tag: transparency rewrites it, the rate
	// limit then sees the rewritten action, and the counter is consumed.
	first := g.Evaluate(constitution.Action{
		"type":         constitution.ActionBroadcastAnnouncement,
		"content":      "Supported by SMTP.eth",
		"is_sponsored": true,
	})
	require.Equal(t, constitution.StatusModify, first.Status)

	second := g.Evaluate(sponsoredAnnouncement())
	assert.Equal(t, constitution.StatusBlock, second.Status)
}

func TestEvaluate_ViralityOverRetention_Blocks(t *testing.T) {
	g, _ := newTestGateway(t)

	decision := g.Evaluate(constitution.Action{
		"type":                constitution.ActionContentStrategy,
		"projected_virality":  0.9,
		"projected_retention": 0.2,
	})
	assert.Equal(t, constitution.StatusBlock, decision.Status)
	assert.Contains(t, decision.Reason, "virality")
}

func TestEvaluate_ViralityWithHealthyRetention_Approves(t *testing.T) {
	g, _ := newTestGateway(t)

	decision := g.Evaluate(constitution.Action{
		"type":                constitution.ActionContentStrategy,
		"projected_virality":  0.9,
		"projected_retention": 0.5,
	})
	assert.Equal(t, constitution.StatusApprove, decision.Status)
}

func TestEvaluate_UnknownActionType_Approves(t *testing.T) {
	g, _ := newTestGateway(t)

	decision := g.Evaluate(constitution.Action{"type": "trivia_fetch"})
	assert.Equal(t, constitution.StatusApprove, decision.Status)
}

func TestEvaluate_ConcurrentSponsoredAnnouncements_OnlyOneApproved(t *testing.T) {
	g, _ := newTestGateway(t)

	const workers = 8
	results := make(chan constitution.Status, workers)
	for i := 0; i < workers; i++ {
		go func() {
			results <- g.Evaluate(sponsoredAnnouncement()).Status
		}()
	}

	approved := 0
	for i := 0; i < workers; i++ {
		if <-results == constitution.StatusApprove {
			approved++
		}
	}
	assert.Equal(t, 1, approved, "exactly one concurrent sponsored announcement may pass")
}
