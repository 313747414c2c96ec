// Package sqlite exposes the SQLite document store while keeping its
// implementation internal.
package sqlite

import (
	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/larder/internal/sqlite"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// NewBackend creates a new SQLite backend instance. A nil logger discards
// log output. The backend is not attached; call Attach with a Config to
// initialize.
//
// Example:
//
//	db := sqlite.NewBackend(nil)
//	err := db.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".larder",
//	})
//	defer db.Detach()
func NewBackend(l logrus.FieldLogger) types.Database {
	if l == nil {
		return sqlite.NewBackend()
	}
	return sqlite.NewBackend(sqlite.WithLogger(l))
}
