package types

// Config holds backend selection and parameters for Database.Attach.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// URI and Database address a MongoDB deployment.
	URI      string `json:"uri,omitempty" yaml:"uri,omitempty"`
	Database string `json:"database,omitempty" yaml:"database,omitempty"`

	// Policy selects the unsigned range convention used when converting
	// entities into the backend's representation.
	Policy string `json:"policy,omitempty" yaml:"policy,omitempty"`

	// LogLevel is a logrus level name. Empty means info.
	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty"`

	SQLiteConfig SQLiteConfig `json:"sqlite,omitempty" yaml:"sqlite,omitempty"`
}

// SQLiteConfig controls when the SQLite backend rewrites its JSONL files.
type SQLiteConfig struct {
	SyncStrategy string `json:"sync_strategy,omitempty" yaml:"sync_strategy,omitempty"`
	// BatchSize is the number of writes that triggers a batch flush.
	BatchSize int `json:"batch_size,omitempty" yaml:"batch_size,omitempty"`
	// BatchInterval is the number of seconds between batch flushes.
	BatchInterval int `json:"batch_interval,omitempty" yaml:"batch_interval,omitempty"`
}

// Sync strategies for SQLiteConfig.
const (
	SyncImmediate = "immediate"
	SyncOnClose   = "on_close"
	SyncBatch     = "batch"
)

// Defaults applied by the SQLiteConfig getters.
const (
	DefaultBatchSize     = 10
	DefaultBatchInterval = 5
)

// GetSyncStrategy returns the configured strategy, defaulting to SyncImmediate.
func (c SQLiteConfig) GetSyncStrategy() string {
	if c.SyncStrategy == "" {
		return SyncImmediate
	}
	return c.SyncStrategy
}

// GetBatchSize returns the batch size, defaulting to DefaultBatchSize.
func (c SQLiteConfig) GetBatchSize() int {
	if c.BatchSize == 0 {
		return DefaultBatchSize
	}
	return c.BatchSize
}

// GetBatchInterval returns the batch interval in seconds, defaulting to
// DefaultBatchInterval.
func (c SQLiteConfig) GetBatchInterval() int {
	if c.BatchInterval == 0 {
		return DefaultBatchInterval
	}
	return c.BatchInterval
}

// Validate checks the strategy name and batch parameters.
func (c SQLiteConfig) Validate() error {
	switch c.SyncStrategy {
	case "", SyncImmediate, SyncOnClose, SyncBatch:
	default:
		return ErrSyncStrategyUnknown
	}
	if c.BatchSize < 0 {
		return ErrBatchSizeInvalid
	}
	if c.BatchInterval < 0 {
		return ErrBatchIntervalInvalid
	}
	return nil
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

// Conversion policy names.
const (
	PolicySignedBound = "signed-bound"
	PolicyStrict      = "strict"
)

// DefaultMongoDatabase is used when Config.Database is empty.
const DefaultMongoDatabase = "larder"

var knownBackends = map[string]bool{
	BackendSQLite: true,
	BackendMongo:  true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Backend == BackendMongo && c.URI == "" {
		return ErrURIEmpty
	}
	switch c.Policy {
	case "", PolicySignedBound, PolicyStrict:
	default:
		return ErrInvalidPolicy
	}
	return c.SQLiteConfig.Validate()
}
