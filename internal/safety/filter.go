// Package safety implements the hive's trust boundary for inbound
// third-party interactions: the authority filter that decides whether a
// message may be treated as an executable instruction, and the
// prompt-injection heuristics that neutralize attempts to manipulate the
// system through message content.
//
// Everything here is best-effort pattern matching, not a cryptographic
// guarantee. Decisions are expected to be paired with audit logging by the
// caller so misses are discoverable after the fact.
package safety

import (
	"strings"
)

// Risk levels attached to a classified interaction.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Treatment tags for non-authority interactions.
const (
	// TreatmentShoutoutOnly marks donation messages: read out as shoutouts,
	// never interpreted as instructions.
	TreatmentShoutoutOnly = "shoutout_only"

	// TreatmentSuggestion marks ordinary non-authority chat: safe to log and
	// read, never executable.
	TreatmentSuggestion = "suggestion"
)

// RedactedInjection replaces content that matched an injection pattern.
const RedactedInjection = "[BLOCKED: Potential Prompt Injection/Code]"

// BlockedAdminCommand replaces content when a non-authority attempts an
// admin verb.
const BlockedAdminCommand = "[BLOCKED: Admin Command by Non-Authority]"

// Classification is the ephemeral result of filtering one interaction.
type Classification struct {
	// Executable is true only for authority instructions and whitelisted
	// public command verbs. Everything else is a suggestion, never a command,
	// regardless of phrasing.
	Executable bool `json:"executable"`

	// Content is the original content, or a redaction marker when the input
	// was neutralized.
	Content string `json:"content"`

	IsAuthority  bool   `json:"is_authority"`
	RiskLevel    string `json:"risk_level"`
	Treatment    string `json:"treatment,omitempty"`
	Command      string `json:"command,omitempty"` // leading command verb, when one was recognized
	OriginalType string `json:"original_type"`     // the interaction type as received
}

// Allowlist is the fixed, version-controlled set of authority identities.
// Changing membership is a configuration change, not a runtime API.
type Allowlist struct {
	Users  []string
	Groups []string
}

// DefaultAllowlist returns the station's standing authority roster.
func DefaultAllowlist() Allowlist {
	return Allowlist{
		Users:  []string{"mr_pappas", "nft2me", "smtp_eth_dev", "fuzzywigg"},
		Groups: []string{"nft2.me_team", "fuzzywigg.ai_logic"},
	}
}

// Public command verbs any listener may use.
var publicCommands = map[string]bool{
	"play": true,
	"tip":  true,
	"vote": true,
	"help": true,
	"faq":  true,
}

// Admin verbs restricted to authorities even when they appear in public
// streams.
var adminCommands = map[string]bool{
	"quiet":     true,
	"verbose":   true,
	"shutdown":  true,
	"restart":   true,
	"blacklist": true,
	"whitelist": true,
}

// Injection patterns screened before any tone classification. Substring
// match, case-insensitive.
var filterInjectionPatterns = []string{
	"ignore previous instructions",
	"system prompt",
	"you are now",
	"run command",
	"execute",
	"sudo",
	"override",
	"function",
	"import ",
	"eval(",
	"0x",
	"{",
	"}",
}

// Filter classifies inbound interactions against an authority allow-list.
// It is stateless apart from the configured roster and safe for concurrent
// use.
type Filter struct {
	users map[string]bool
}

// NewFilter builds a filter for the given allow-list.
func NewFilter(list Allowlist) *Filter {
	users := make(map[string]bool, len(list.Users))
	for _, u := range list.Users {
		users[NormalizeHandle(u)] = true
	}
	return &Filter{users: users}
}

// NormalizeHandle lower-cases a handle and strips a leading @ sigil.
func NormalizeHandle(handle string) string {
	return strings.TrimPrefix(strings.ToLower(handle), "@")
}

// IsAuthority reports whether the handle belongs to the authority roster.
func (f *Filter) IsAuthority(handle string) bool {
	return f.users[NormalizeHandle(handle)]
}

// Classify decides whether the interaction may be treated as an executable
// instruction.
//
// Authorities are always executable with content passed through verbatim.
// For everyone else the injection screen runs first and takes precedence:
// any match forces non-executable, redacts the content, and sets risk high.
// Clean non-authority content is then either a whitelisted public command
// (executable), a blocked admin verb (medium risk), a donation (shoutout
// only), or a plain suggestion.
//
// Malformed input never raises: empty content classifies as a low-risk
// suggestion with content passed through unchanged.
func (f *Filter) Classify(sourceHandle, content, interactionType string) Classification {
	contentLower := strings.ToLower(strings.TrimSpace(content))

	c := Classification{
		Content:      content,
		IsAuthority:  f.IsAuthority(sourceHandle),
		RiskLevel:    RiskLow,
		OriginalType: interactionType,
	}

	// Authorities have standing instructions-are-commands trust.
	if c.IsAuthority {
		c.Executable = true
		c.Command = extractCommand(contentLower)
		return c
	}

	// Injection screen precedes tone classification.
	for _, pattern := range filterInjectionPatterns {
		if strings.Contains(contentLower, pattern) {
			c.RiskLevel = RiskHigh
			c.Content = RedactedInjection
			return c
		}
	}

	if cmd := extractCommand(contentLower); cmd != "" {
		switch {
		case publicCommands[cmd]:
			c.Executable = true
			c.Command = cmd
			return c
		case adminCommands[cmd]:
			c.RiskLevel = RiskMedium
			c.Content = BlockedAdminCommand
			return c
		}
		// Looked like a command but is neither whitelisted nor admin:
		// falls through to be treated as chat.
	}

	// Donation messages are never read back as instructions.
	if interactionType == "donation" {
		c.Treatment = TreatmentShoutoutOnly
		return c
	}

	c.Treatment = TreatmentSuggestion
	return c
}

// extractCommand returns the first word of the content, the candidate
// command verb. Returns "" for empty content.
func extractCommand(content string) string {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
