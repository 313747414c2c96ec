package cli

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/larder/internal/mongo"
	"github.com/mesh-intelligence/larder/internal/sqlite"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// open attaches the configured backend. The caller must Detach it.
func (a *app) open() (types.Database, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}

	var db types.Database
	switch cfg.Backend {
	case types.BackendMongo:
		db = mongo.NewBackend(mongo.WithLogger(a.log))
	default:
		db = sqlite.NewBackend(sqlite.WithLogger(a.log))
	}
	if err := db.Attach(cfg); err != nil {
		return nil, fmt.Errorf("attach %s: %w", cfg.Backend, err)
	}
	a.log.WithField("backend", cfg.Backend).Debug("opened")
	return db, nil
}

// withTable opens the backend, runs fn against the named table and
// detaches.
func (a *app) withTable(ctx context.Context, name string, fn func(context.Context, types.Table) error) (err error) {
	db, err := a.open()
	if err != nil {
		return err
	}
	defer func() {
		if derr := db.Detach(); derr != nil && err == nil {
			err = fmt.Errorf("detach: %w", derr)
		}
	}()

	tbl, err := db.GetTable(name)
	if err != nil {
		return err
	}
	return fn(ctx, tbl)
}
