// Package keys resolves operational secrets for the hive. Secrets come from
// the environment first, then from a local keys.json beside the honeycomb
// (never version-controlled), and only then from an insecure development
// fallback.
package keys

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
)

// SigningKeyEnv is the environment variable carrying the state-signing key.
const SigningKeyEnv = "HIVE_SECRET_KEY"

// DevFallbackSecret is the development-only signing key. It must never be
// used where tamper detection matters; the state manager calls out its use
// on every verification failure.
const DevFallbackSecret = "dev_secret_key_change_me_in_prod"

// Manager resolves named secrets.
type Manager struct {
	localKeys map[string]string
}

// NewManager loads the optional keys.json from the given directory. A
// missing file is fine; an unreadable one is logged and ignored so a broken
// keys file never takes the hive down.
func NewManager(dir string) *Manager {
	m := &Manager{localKeys: map[string]string{}}

	path := filepath.Join(dir, "keys.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[Keys] Warning: failed to read %s: %v", path, err)
		}
		return m
	}
	if err := json.Unmarshal(data, &m.localKeys); err != nil {
		log.Printf("[Keys] Warning: failed to parse %s: %v", path, err)
		m.localKeys = map[string]string{}
	}
	return m
}

// Resolve returns the secret for the given environment-variable name.
// Priority: OS environment, then keys.json. Returns "" when unset.
func (m *Manager) Resolve(name string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return m.localKeys[name]
}

// SigningKey resolves the state-signing key. When neither the environment
// nor keys.json provides one it falls back to the development default and
// reports usedFallback=true so callers can warn.
func (m *Manager) SigningKey() (key []byte, usedFallback bool) {
	if v := m.Resolve(SigningKeyEnv); v != "" {
		return []byte(v), false
	}
	return []byte(DevFallbackSecret), true
}
