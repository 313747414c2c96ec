package sqlite

import (
	"database/sql"
	"fmt"
)

// Every collection shares one table. id holds the typed JSON form of the
// document identifier and body the typed JSON form of the whole record.
// rowid order is insertion order.
const (
	createDocuments = `CREATE TABLE IF NOT EXISTS documents (
    collection TEXT NOT NULL,
    id TEXT NOT NULL,
    body TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (collection, id)
);`
)

var schemaDDL = []string{
	createDocuments,
}

func createSchema(db *sql.DB) error {
	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}
