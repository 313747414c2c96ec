package cli

import (
	"fmt"
	"os"

	"github.com/samber/lo"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/larder/internal/log"
	"github.com/mesh-intelligence/larder/internal/paths"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// Config keys in config.yaml.
const (
	keyBackend       = "backend"
	keyDataDir       = "data_dir"
	keyURI           = "uri"
	keyDatabase      = "database"
	keyPolicy        = "policy"
	keyLogLevel      = "log_level"
	keySyncStrategy  = "sqlite.sync_strategy"
	keyBatchSize     = "sqlite.batch_size"
	keyBatchInterval = "sqlite.batch_interval"
)

const configHeader = "# larder configuration\n"

// defaultConfig is written to config.yaml on first run.
var defaultConfig = types.Config{
	Backend:  types.BackendSQLite,
	Policy:   types.PolicySignedBound,
	LogLevel: log.DefaultLevel,
}

// loadConfig reads config.yaml from configDir, creating the directory and a
// default file on first run.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	if err := writeDefaultConfig(paths.ConfigFile(configDir)); err != nil {
		return nil, fmt.Errorf("write default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(keyBackend, types.BackendSQLite)
	v.SetConfigFile(paths.ConfigFile(configDir))
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// writeDefaultConfig creates path with defaultConfig unless it exists.
func writeDefaultConfig(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(defaultConfig)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, append([]byte(configHeader), data...), 0o644)
}

// config merges flags over config.yaml and validates the result.
func (a *app) config() (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, a.v.GetString(keyDataDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg := types.Config{
		Backend:  lo.CoalesceOrEmpty(a.flags.backend, a.v.GetString(keyBackend)),
		DataDir:  dataDir,
		URI:      a.v.GetString(keyURI),
		Database: a.v.GetString(keyDatabase),
		Policy:   lo.CoalesceOrEmpty(a.flags.policy, a.v.GetString(keyPolicy)),
		LogLevel: lo.CoalesceOrEmpty(a.flags.logLevel, a.v.GetString(keyLogLevel)),
		SQLiteConfig: types.SQLiteConfig{
			SyncStrategy:  a.v.GetString(keySyncStrategy),
			BatchSize:     a.v.GetInt(keyBatchSize),
			BatchInterval: a.v.GetInt(keyBatchInterval),
		},
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
