package types

import "errors"

// Table operation errors.
var (
	ErrNotFound         = errors.New("entity not found")
	ErrInvalidID        = errors.New("invalid entity identifier")
	ErrInvalidData      = errors.New("invalid entity data")
	ErrInvalidQuery     = errors.New("invalid query")
	ErrInvalidTableName = errors.New("invalid table name")
	ErrDuplicateID      = errors.New("entity identifier already exists")
)

// Database lifecycle errors.
var (
	ErrDatabaseDetached = errors.New("database is detached")
	ErrAlreadyAttached  = errors.New("database is already attached")
)

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
	ErrURIEmpty       = errors.New("connection URI must not be empty")
	ErrInvalidPolicy  = errors.New("unknown conversion policy")

	ErrSyncStrategyUnknown  = errors.New("unknown sync strategy")
	ErrBatchSizeInvalid     = errors.New("batch size must be positive")
	ErrBatchIntervalInvalid = errors.New("batch interval must be positive")
)
