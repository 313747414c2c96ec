package sqlite

import (
	"database/sql"
	"fmt"

	j "github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/larder/pkg/codec"
	"github.com/mesh-intelligence/larder/pkg/types"
)

const insertDocument = `INSERT OR REPLACE INTO documents (collection, id, body, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`

// loadAllJSONL reads every collection file in dataDir into the documents
// table and returns the number of collections loaded. Loading is
// transactional: all files load or the database stays empty. Lines that do
// not decode are skipped with a warning.
func loadAllJSONL(db *sql.DB, dataDir string, l logrus.FieldLogger) (int, error) {
	collections, err := listCollections(dataDir)
	if err != nil {
		return 0, fmt.Errorf("listing collections: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertDocument)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, name := range collections {
		lines, err := readJSONL(collectionPath(dataDir, name))
		if err != nil {
			return 0, err
		}
		cl := l.WithField("table", name)
		for n, line := range lines {
			row, err := decodeRecord(line)
			if err != nil {
				cl.WithError(err).WithField("line", n+1).Warn("skipping record")
				continue
			}
			if _, err := stmt.Exec(name, row.id, row.body, row.createdAt, row.updatedAt); err != nil {
				return 0, fmt.Errorf("loading %s: %w", name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing load transaction: %w", err)
	}
	return len(collections), nil
}

// row is a documents table row.
type row struct {
	id        string
	body      string
	createdAt string
	updatedAt string
}

// decodeRecord validates one JSONL line and canonicalizes its identifier so
// lookups by id compare equal text.
func decodeRecord(line j.RawMessage) (row, error) {
	var rec record
	if err := j.Unmarshal(line, &rec); err != nil {
		return row{}, err
	}
	idv, err := codec.UnmarshalTyped(rec.ID, types.RecordType)
	if err != nil {
		return row{}, fmt.Errorf("id: %w", err)
	}
	id, err := encodeID(idv)
	if err != nil {
		return row{}, err
	}
	body, err := codec.UnmarshalTyped(rec.Body, types.RecordType)
	if err != nil {
		return row{}, fmt.Errorf("body: %w", err)
	}
	if _, ok := body.AsObject(); !ok {
		return row{}, fmt.Errorf("%w: body is %s", types.ErrInvalidData, body.Kind())
	}

	now := timestamp()
	r := row{id: id, body: string(rec.Body), createdAt: rec.CreatedAt, updatedAt: rec.UpdatedAt}
	if r.createdAt == "" {
		r.createdAt = now
	}
	if r.updatedAt == "" {
		r.updatedAt = r.createdAt
	}
	return r, nil
}

// encodeRecord renders a row as a JSONL line.
func encodeRecord(r row) (j.RawMessage, error) {
	return j.Marshal(record{
		ID:        j.RawMessage(r.id),
		Body:      j.RawMessage(r.body),
		CreatedAt: r.createdAt,
		UpdatedAt: r.updatedAt,
	})
}
