package honeycomb

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gowebpki/jcs"

	"github.com/backlinkradio/hive/internal/keys"
)

// StateDocument is the honeycomb document holding the hive's shared state.
const StateDocument = "state.json"

// EnvelopeVersion is the current signing-scheme version written into every
// envelope, allowing the scheme to change without breaking old readers.
const EnvelopeVersion = "1.0"

// ErrSignatureMismatch is returned by Read in fail-closed mode when the
// stored signature does not match the recomputed one.
var ErrSignatureMismatch = errors.New("honeycomb: state signature mismatch, possible tampering")

// envelope is the on-disk form of the signed state.
type envelope struct {
	Data      map[string]any `json:"data"`
	Signature string         `json:"signature"`
	Ver       string         `json:"ver"`
}

// State is the normalized result of a Read. The envelope-vs-legacy duality
// of the stored form is resolved here: callers always get the inner data
// plus verification flags.
type State struct {
	Data map[string]any

	// Unverified is true when the data could not be authenticated: a legacy
	// unsigned document, or a signature mismatch under fail-open policy.
	Unverified bool

	// Legacy is true when the artifact predates the signing scheme.
	Legacy bool
}

// Manager gives every bee a single shared, crash-consistent, tamper-evident
// state document. Writes stamp, sign, and atomically replace the whole
// document; reads verify the signature with a constant-time comparison.
type Manager struct {
	store      Store
	secret     []byte
	failClosed bool
	clock      Clock

	// writeMu serializes read-modify-write cycles so two writers cannot each
	// sign a stale base document.
	writeMu sync.Mutex
}

// Clock provides the manager's time source for the _meta stamp.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now().UTC() }

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// FailClosed makes Read refuse to return data whose signature does not
// verify, instead of the default fail-open (return data, flag unverified,
// log a security warning).
func FailClosed() ManagerOption {
	return func(m *Manager) { m.failClosed = true }
}

// WithManagerClock injects a time source for tests.
func WithManagerClock(c Clock) ManagerOption {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}

// NewManager creates a state manager signing with the given secret.
// Using the development fallback secret is allowed but warned about loudly.
func NewManager(store Store, secret []byte, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:  store,
		secret: secret,
		clock:  wallClock{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.usingDevSecret() {
		log.Printf("[Honeycomb] WARNING: signing state with the development fallback key; set %s in production", keys.SigningKeyEnv)
	}
	return m
}

func (m *Manager) usingDevSecret() bool {
	return string(m.secret) == keys.DevFallbackSecret
}

// sign computes the hex HMAC-SHA256 over the RFC 8785 canonical form of the
// data, so map-key order never affects the signature.
func (m *Manager) sign(data map[string]any) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to serialize state: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize state: %w", err)
	}

	mac := hmac.New(sha256.New, m.secret)
	mac.Write(canonical)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Write stamps the document with the update time and writer identity, signs
// it, and atomically replaces the stored artifact. The whole document is
// replaced on every write; there are no partial updates.
func (m *Manager) Write(ctx context.Context, data map[string]any, writerIdentity string) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	// Stamp a copy so the caller's map is not mutated.
	stamped := make(map[string]any, len(data)+1)
	for k, v := range data {
		stamped[k] = v
	}
	meta := map[string]any{}
	if existing, ok := stamped["_meta"].(map[string]any); ok {
		for k, v := range existing {
			meta[k] = v
		}
	}
	meta["last_updated"] = m.clock.Now().UTC().Format(time.RFC3339)
	meta["last_updated_by"] = writerIdentity
	stamped["_meta"] = meta

	signature, err := m.sign(stamped)
	if err != nil {
		return err
	}

	payload, err := json.MarshalIndent(envelope{
		Data:      stamped,
		Signature: signature,
		Ver:       EnvelopeVersion,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize state envelope: %w", err)
	}

	return m.store.Write(ctx, StateDocument, payload)
}

// Read returns the current shared state.
//
// A missing artifact yields an empty state. An unparsable artifact is
// treated as corrupt and also yields an empty state, with a warning, rather
// than failing the caller. A signed envelope is verified with a
// constant-time comparison: on mismatch the tampering is always logged as a
// security warning, and either the data is returned flagged Unverified
// (default, fail-open) or ErrSignatureMismatch is returned (fail-closed). A
// pre-envelope document is returned as-is, flagged Legacy and Unverified.
func (m *Manager) Read(ctx context.Context) (State, error) {
	raw, err := m.store.Read(ctx, StateDocument)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return State{Data: map[string]any{}}, nil
		}
		return State{}, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Signature != "" && env.Data != nil {
		return m.verify(env)
	}

	// Not an envelope. Either a legacy unsigned document or corrupt bytes.
	var legacy map[string]any
	if err := json.Unmarshal(raw, &legacy); err != nil {
		log.Printf("[Honeycomb] Warning: state artifact is corrupt, treating as empty: %v", err)
		return State{Data: map[string]any{}}, nil
	}
	log.Printf("[Honeycomb] Warning: reading unsigned legacy state")
	return State{Data: legacy, Unverified: true, Legacy: true}, nil
}

// verify recomputes the signature over the envelope's data and compares it
// in constant time.
func (m *Manager) verify(env envelope) (State, error) {
	expected, err := m.sign(env.Data)
	if err != nil {
		return State{}, err
	}

	if hmac.Equal([]byte(env.Signature), []byte(expected)) {
		return State{Data: env.Data}, nil
	}

	devNote := ""
	if m.usingDevSecret() {
		devNote = " (verifying with the development fallback key; a key mismatch with production writers is likely)"
	}
	log.Printf("[Honeycomb] SECURITY WARNING: state signature mismatch, possible tampering%s", devNote)

	if m.failClosed {
		return State{}, ErrSignatureMismatch
	}
	return State{Data: env.Data, Unverified: true}, nil
}
