package safety

import "strings"

// Redaction markers for sanitized payment messages.
const (
	RedactedBySafetyProtocol = "[Message Redacted by Safety Protocol]"
	RedactedCodeDetected     = "[Message Redacted: Code Detected]"
)

// injectionPattern pairs a substring with the category label reported when
// it matches.
type injectionPattern struct {
	substring string
	category  string
}

// Ordered so the most specific phrasings are reported first.
var injectionPatterns = []injectionPattern{
	{"ignore previous instructions", "instruction override attempt"},
	{"ignore all previous", "instruction override attempt"},
	{"disregard previous", "instruction override attempt"},
	{"forget your instructions", "instruction override attempt"},
	{"you are now", "role injection attempt"},
	{"you're now", "role injection attempt"},
	{"act as", "role injection attempt"},
	{"pretend you are", "role injection attempt"},
	{"system prompt", "system access attempt"},
	{"system:", "system access attempt"},
	{"assistant:", "role manipulation attempt"},
	{"user:", "role manipulation attempt"},
	{"run command", "command injection attempt"},
	{"execute code", "command injection attempt"},
	{"sudo", "privilege escalation attempt"},
	{"override", "override attempt"},
	{"jailbreak", "jailbreak attempt"},
	{"dan mode", "jailbreak attempt"},
	{"developer mode", "jailbreak attempt"},
	{"</system>", "tag injection attempt"},
	{"<system>", "tag injection attempt"},
	{"###", "delimiter injection attempt"},
}

// DetectPromptInjection scans arbitrary text for injection phrasings and
// returns the category of the first match. Stateless, no side effects;
// empty text is never an injection.
func DetectPromptInjection(text string) (bool, string) {
	if text == "" {
		return false, ""
	}

	textLower := strings.ToLower(text)
	for _, p := range injectionPatterns {
		if strings.Contains(textLower, p.substring) {
			return true, p.category
		}
	}
	return false, ""
}

// Coercion phrasings that try to get a payment message read out verbatim as
// an instruction ("make me say" attacks).
var coercionPhrases = []string{
	"repeat after me",
	"say exactly",
	"ignore rules",
}

// Code-like fragments that must never reach a read-out path.
var codeFragments = []string{
	"function",
	"0x",
	"{",
	"}",
}

// SanitizePaymentMessage neutralizes donation/payment message content before
// it is read on air. Coercion attempts and code-like content are replaced
// with fixed redaction markers; clean messages pass through unchanged.
func SanitizePaymentMessage(message string) string {
	messageLower := strings.ToLower(message)

	for _, phrase := range coercionPhrases {
		if strings.Contains(messageLower, phrase) {
			return RedactedBySafetyProtocol
		}
	}
	for _, fragment := range codeFragments {
		if strings.Contains(messageLower, fragment) {
			return RedactedCodeDetected
		}
	}
	return message
}
