package commands

import (
	"fmt"
	"path/filepath"

	"github.com/redis/go-redis/v9"

	"github.com/backlinkradio/hive/internal/config"
	"github.com/backlinkradio/hive/internal/honeycomb"
	"github.com/backlinkradio/hive/internal/keys"
	"github.com/backlinkradio/hive/internal/printer"
)

// loadConfig reads the hive.yml named by the global --config flag.
func loadConfig() (*config.HiveConfig, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, printer.Error(
			"failed to load configuration",
			err.Error(),
			[]string{
				"Run 'hive init' to create a new hive.yml",
				"Pass --config to point at an existing one",
			},
		)
	}
	return cfg, nil
}

// logsDir returns the honeycomb logs directory for the instance.
func logsDir(cfg *config.HiveConfig) string {
	return filepath.Join(cfg.Honeycomb.Path, "logs")
}

// constitutionalLogPath returns the durable gateway-decision log file.
func constitutionalLogPath(cfg *config.HiveConfig) string {
	return filepath.Join(logsDir(cfg), "constitutional_log.jsonl")
}

// openStore builds the configured honeycomb backend. The returned closer is
// a no-op for the file backend.
func openStore(cfg *config.HiveConfig) (honeycomb.Store, func() error, error) {
	switch cfg.Honeycomb.Backend {
	case config.BackendRedis:
		store, err := honeycomb.NewRedisStore(&redis.Options{Addr: cfg.Honeycomb.RedisAddr}, cfg.Instance)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Redis store: %w", err)
		}
		return store, store.Close, nil
	default:
		store, err := honeycomb.NewFileStore(cfg.Honeycomb.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() error { return nil }, nil
	}
}

// openStateManager builds the signed state manager over the configured
// backend, resolving the signing key from the environment or keys.json.
func openStateManager(cfg *config.HiveConfig) (*honeycomb.Manager, honeycomb.Store, func() error, error) {
	store, closer, err := openStore(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	key, usedFallback := keys.NewManager(cfg.Honeycomb.Path).SigningKey()
	if usedFallback {
		printer.Warning("using the development signing key; set %s in production\n", keys.SigningKeyEnv)
	}

	var opts []honeycomb.ManagerOption
	if cfg.Honeycomb.FailClosed {
		opts = append(opts, honeycomb.FailClosed())
	}
	return honeycomb.NewManager(store, key, opts...), store, closer, nil
}
