// Package config loads and validates hive.yml, the version-controlled
// configuration for a hive instance: principle thresholds, the authority
// allow-list, and the honeycomb backend selection.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/backlinkradio/hive/internal/safety"
	"github.com/backlinkradio/hive/pkg/constitution"
)

// Honeycomb backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// HiveConfig represents the top-level hive.yml configuration.
type HiveConfig struct {
	Version  string `yaml:"version"`
	Instance string `yaml:"instance"`

	Honeycomb   HoneycombConfig    `yaml:"honeycomb"`
	Principles  *PrinciplesConfig  `yaml:"principles,omitempty"`
	Authorities *AuthoritiesConfig `yaml:"authorities,omitempty"`
}

// HoneycombConfig selects and parameterizes the shared-state backend.
type HoneycombConfig struct {
	Path       string `yaml:"path"`                  // root directory for file backend, logs, keys.json
	Backend    string `yaml:"backend,omitempty"`     // "file" (default) or "redis"
	RedisAddr  string `yaml:"redis_addr,omitempty"`  // host:port, required for the redis backend
	FailClosed bool   `yaml:"fail_closed,omitempty"` // refuse unverified state instead of flagging it
}

// PrinciplesConfig overrides the constitution's default thresholds.
// Pointer fields distinguish "not set" from explicit zero.
type PrinciplesConfig struct {
	ArtistMinShare            *float64 `yaml:"artist_min_share,omitempty"`
	MaxSponsorMentionsPerHour *int     `yaml:"max_sponsor_mentions_per_hour,omitempty"`
	HighViralityThreshold     *float64 `yaml:"high_virality_threshold,omitempty"`
	MinRetentionFloor         *float64 `yaml:"min_retention_floor,omitempty"`
}

// AuthoritiesConfig is the fixed allow-list of authority identities.
type AuthoritiesConfig struct {
	Users  []string `yaml:"users"`
	Groups []string `yaml:"groups,omitempty"`
}

// Load reads and validates hive.yml from the given path.
func Load(path string) (*HiveConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg HiveConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate performs strict validation and applies defaults.
func (c *HiveConfig) Validate() error {
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if c.Instance == "" {
		c.Instance = "default"
	}

	if c.Honeycomb.Path == "" {
		return fmt.Errorf("honeycomb.path is required")
	}

	switch c.Honeycomb.Backend {
	case "":
		c.Honeycomb.Backend = BackendFile
	case BackendFile:
	case BackendRedis:
		if c.Honeycomb.RedisAddr == "" {
			return fmt.Errorf("honeycomb.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown honeycomb backend: %s (expected: file or redis)", c.Honeycomb.Backend)
	}

	if c.Principles != nil {
		if v := c.Principles.ArtistMinShare; v != nil && (*v < 0 || *v > 1) {
			return fmt.Errorf("principles.artist_min_share must be within [0, 1], got %v", *v)
		}
		if v := c.Principles.MaxSponsorMentionsPerHour; v != nil && *v < 0 {
			return fmt.Errorf("principles.max_sponsor_mentions_per_hour must be >= 0, got %d", *v)
		}
		if v := c.Principles.HighViralityThreshold; v != nil && (*v < 0 || *v > 1) {
			return fmt.Errorf("principles.high_virality_threshold must be within [0, 1], got %v", *v)
		}
		if v := c.Principles.MinRetentionFloor; v != nil && (*v < 0 || *v > 1) {
			return fmt.Errorf("principles.min_retention_floor must be within [0, 1], got %v", *v)
		}
	}

	return nil
}

// Constitution resolves the principle thresholds, starting from the defaults
// and applying any overrides.
func (c *HiveConfig) Constitution() constitution.Config {
	cfg := constitution.DefaultConfig()
	if c.Principles == nil {
		return cfg
	}
	if v := c.Principles.ArtistMinShare; v != nil {
		cfg.ArtistMinShare = *v
	}
	if v := c.Principles.MaxSponsorMentionsPerHour; v != nil {
		cfg.MaxSponsorMentionsPerHour = *v
	}
	if v := c.Principles.HighViralityThreshold; v != nil {
		cfg.HighViralityThreshold = *v
	}
	if v := c.Principles.MinRetentionFloor; v != nil {
		cfg.MinRetentionFloor = *v
	}
	return cfg
}

// Allowlist resolves the authority allow-list, falling back to the station's
// standing roster when the config omits one.
func (c *HiveConfig) Allowlist() safety.Allowlist {
	if c.Authorities == nil {
		return safety.DefaultAllowlist()
	}
	return safety.Allowlist{
		Users:  c.Authorities.Users,
		Groups: c.Authorities.Groups,
	}
}
