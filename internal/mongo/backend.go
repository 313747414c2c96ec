// Package mongo implements the larder document store on MongoDB. Each
// table is a collection of the configured database; documents are
// converted to DocumentType and mapped onto BSON.
package mongo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/mesh-intelligence/larder/internal/log"
	"github.com/mesh-intelligence/larder/pkg/convert"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// DefaultConnectTimeout bounds Attach and Detach.
const DefaultConnectTimeout = 10 * time.Second

// Backend implements types.Database on a MongoDB deployment.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	client   *mongo.Client
	db       *mongo.Database
	engine   *convert.Engine
	log      logrus.FieldLogger
	timeout  time.Duration
	tables   map[string]*Table
}

var _ types.Database = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the backend logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(b *Backend) {
		b.log = l
	}
}

// WithConnectTimeout overrides DefaultConnectTimeout.
func WithConnectTimeout(d time.Duration) Option {
	return func(b *Backend) {
		b.timeout = d
	}
}

// NewBackend creates a detached MongoDB backend.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		log:     log.Discard(),
		timeout: DefaultConnectTimeout,
		tables:  make(map[string]*Table),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// GetTable returns the Table for the named collection.
func (b *Backend) GetTable(name string) (types.Table, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", types.ErrInvalidTableName)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil, types.ErrDatabaseDetached
	}
	t, ok := b.tables[name]
	if !ok {
		t = &Table{
			name:    name,
			coll:    b.db.Collection(name),
			backend: b,
			log:     log.WithTable(b.log, types.BackendMongo, name),
		}
		b.tables[name] = t
	}
	return t, nil
}

// Attach connects to config.URI and selects config.Database, or
// DefaultMongoDatabase when it is empty. The deployment must answer a ping.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if config.Backend != types.BackendMongo {
		return fmt.Errorf("%w: mongo backend given %q", types.ErrBackendUnknown, config.Backend)
	}
	policy, err := convert.ParsePolicy(config.Policy)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("ping mongo: %w", err)
	}

	database := config.Database
	if database == "" {
		database = types.DefaultMongoDatabase
	}

	l := b.log.WithField("backend", types.BackendMongo)
	b.client = client
	b.db = client.Database(database)
	b.engine = convert.New(
		convert.WithPolicy(policy),
		convert.WithRegistry(bsonEngine.Registry()),
		convert.WithLogger(l),
	)
	b.tables = make(map[string]*Table)
	b.attached = true

	l.WithField("database", database).Debug("attached")
	return nil
}

// Detach disconnects the client. Idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	err := b.client.Disconnect(ctx)
	b.client = nil
	b.db = nil
	b.attached = false
	b.tables = make(map[string]*Table)
	if err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	return nil
}
