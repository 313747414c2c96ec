package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	j "github.com/goccy/go-json"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/larder/internal/log"
	"github.com/mesh-intelligence/larder/pkg/codec"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// Table implements types.Table for one collection. Documents are converted
// to RecordType before they are written.
type Table struct {
	name    string
	backend *Backend
	log     logrus.FieldLogger
}

var _ types.Table = (*Table)(nil)

func newTable(b *Backend, name string) *Table {
	return &Table{
		name:    name,
		backend: b,
		log:     log.WithTable(b.log, types.BackendSQLite, name),
	}
}

// Name returns the collection name.
func (t *Table) Name() string { return t.name }

// ready checks ctx and the attachment state. The caller must hold b.mu.
func (t *Table) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !t.backend.attached {
		return types.ErrDatabaseDetached
	}
	return nil
}

// Store inserts doc, assigning an identifier when it has none.
// Returns ErrInvalidData if a field cannot be represented, ErrInvalidID for
// an identifier that is not hashable and ErrDuplicateID if the identifier is
// taken.
func (t *Table) Store(ctx context.Context, doc *types.Document) (types.Value, error) {
	if doc == nil {
		return types.Value{}, fmt.Errorf("%w: nil document", types.ErrInvalidData)
	}
	b := t.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := t.ready(ctx); err != nil {
		return types.Value{}, err
	}
	if _, ok := doc.Identifier(); !ok {
		doc = doc.Clone()
		doc.SetField(types.DefaultIdentifierField, t.GenerateIdentifier())
	}

	enc, err := t.encode(doc)
	if err != nil {
		return types.Value{}, err
	}
	exists, err := t.exists(ctx, enc.idText)
	if err != nil {
		return types.Value{}, err
	}
	if exists {
		return types.Value{}, fmt.Errorf("%w: %v", types.ErrDuplicateID, enc.id)
	}

	now := timestamp()
	_, err = b.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, body, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		t.name, enc.idText, enc.body, now, now)
	if err != nil {
		return types.Value{}, fmt.Errorf("insert document: %w", err)
	}
	t.log.WithField("id", enc.id).Debug("stored")

	if err := b.persist(t.name, "store"); err != nil {
		return types.Value{}, err
	}
	return enc.id, nil
}

// FindOne returns the document with the given identifier.
func (t *Table) FindOne(ctx context.Context, id types.Value) (*types.Document, error) {
	b := t.backend
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := t.ready(ctx); err != nil {
		return nil, err
	}
	idText, err := t.lookupID(id)
	if err != nil {
		return nil, err
	}

	var body string
	err = b.db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND id = ?`, t.name, idText).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}
	return decodeBody(body)
}

// FindOneMatching returns the first document, in insertion order, matching q.
func (t *Table) FindOneMatching(ctx context.Context, q types.Query) (*types.Document, error) {
	docs, err := t.Find(ctx, q, nil)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, types.ErrNotFound
	}
	return docs[0], nil
}

// Find returns every document matching q. Without a sort the documents come
// back in insertion order.
func (t *Table) Find(ctx context.Context, q types.Query, s types.Sort) ([]*types.Document, error) {
	b := t.backend
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := t.ready(ctx); err != nil {
		return nil, err
	}
	matched, err := t.match(ctx, q)
	if err != nil {
		return nil, err
	}
	docs := lo.Map(matched, func(m matchedRow, _ int) *types.Document { return m.doc })
	if len(s) > 0 {
		sort.SliceStable(docs, func(i, k int) bool { return s.Less(docs[i], docs[k]) })
	}
	return docs, nil
}

// Update replaces every document matching q with doc. Each replacement keeps
// the identifier of the document it replaces. Returns the number replaced.
func (t *Table) Update(ctx context.Context, q types.Query, doc *types.Document) (int, error) {
	if doc == nil {
		return 0, fmt.Errorf("%w: nil document", types.ErrInvalidData)
	}
	b := t.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := t.ready(ctx); err != nil {
		return 0, err
	}
	matched, err := t.match(ctx, q)
	if err != nil {
		return 0, err
	}
	if len(matched) == 0 {
		return 0, nil
	}

	now := timestamp()
	for _, m := range matched {
		if err := t.replace(ctx, m.idText, m.id, doc, now); err != nil {
			return 0, err
		}
	}
	t.log.WithField("count", len(matched)).Debug("updated")

	if err := b.persist(t.name, "update"); err != nil {
		return 0, err
	}
	return len(matched), nil
}

// UpdateByID replaces the document with the given identifier.
func (t *Table) UpdateByID(ctx context.Context, id types.Value, doc *types.Document) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", types.ErrInvalidData)
	}
	b := t.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := t.ready(ctx); err != nil {
		return err
	}
	idText, err := t.lookupID(id)
	if err != nil {
		return err
	}
	exists, err := t.exists(ctx, idText)
	if err != nil {
		return err
	}
	if !exists {
		return types.ErrNotFound
	}

	stored, err := codec.UnmarshalTyped([]byte(idText), types.RecordType)
	if err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	if err := t.replace(ctx, idText, stored, doc, timestamp()); err != nil {
		return err
	}
	t.log.WithField("id", stored).Debug("updated")
	return b.persist(t.name, "update")
}

// Delete removes the document with the given identifier.
func (t *Table) Delete(ctx context.Context, id types.Value) error {
	b := t.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := t.ready(ctx); err != nil {
		return err
	}
	idText, err := t.lookupID(id)
	if err != nil {
		return err
	}

	res, err := b.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, t.name, idText)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n == 0 {
		return types.ErrNotFound
	}
	t.log.WithField("id", id).Debug("deleted")
	return b.persist(t.name, "delete")
}

// GenerateIdentifier returns a UUID v7 string.
func (t *Table) GenerateIdentifier() types.Value {
	return types.String(generateUUID())
}

// encoded is a document ready to be written.
type encoded struct {
	id     types.Value
	idText string
	body   string
}

// encode converts doc to RecordType and renders it with the kind-tagged
// codec. Fields that do not convert make the whole document invalid.
func (t *Table) encode(doc types.Object) (encoded, error) {
	res := t.backend.engine.Object(doc, types.RecordType)
	if !res.Complete() {
		names := lo.Map(res.Remainder.Keys(), func(k types.Key, _ int) string { return k.String() })
		return encoded{}, fmt.Errorf("%w: fields not representable: %s",
			types.ErrInvalidData, strings.Join(names, ", "))
	}
	id, ok := res.Converted.Get(types.StringKey(types.DefaultIdentifierField))
	if !ok {
		return encoded{}, fmt.Errorf("%w: missing %s", types.ErrInvalidID, types.DefaultIdentifierField)
	}
	idText, err := encodeID(id)
	if err != nil {
		return encoded{}, err
	}
	body, err := codec.MarshalTyped(types.ObjectValue(res.Converted))
	if err != nil {
		return encoded{}, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	return encoded{id: id, idText: idText, body: string(body)}, nil
}

// replace overwrites the body of an existing row with doc, carrying id.
func (t *Table) replace(ctx context.Context, idText string, id types.Value, doc *types.Document, now string) error {
	next := types.Clone(doc)
	next.Set(types.StringKey(types.DefaultIdentifierField), id)
	enc, err := t.encode(next)
	if err != nil {
		return err
	}
	_, err = t.backend.db.ExecContext(ctx,
		`UPDATE documents SET body = ?, updated_at = ? WHERE collection = ? AND id = ?`,
		enc.body, now, t.name, idText)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return nil
}

// lookupID converts a caller-supplied identifier the way Store converts the
// identifier field, so both produce the same text.
func (t *Table) lookupID(id types.Value) (string, error) {
	v, ok := t.backend.engine.Represent(id, types.RecordType.ValueKinds())
	if !ok {
		return "", fmt.Errorf("%w: %s identifier", types.ErrInvalidID, id.Kind())
	}
	return encodeID(v)
}

func (t *Table) exists(ctx context.Context, idText string) (bool, error) {
	var one int
	err := t.backend.db.QueryRowContext(ctx,
		`SELECT 1 FROM documents WHERE collection = ? AND id = ?`, t.name, idText).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query document: %w", err)
	}
	return true, nil
}

// matchedRow is a decoded row that satisfied a query.
type matchedRow struct {
	idText string
	id     types.Value
	doc    *types.Document
}

// match scans the collection in insertion order and keeps the rows whose
// documents satisfy q. An identifier filter is answered by the index.
func (t *Table) match(ctx context.Context, q types.Query) ([]matchedRow, error) {
	cq, err := t.convertQuery(q)
	if err != nil {
		return nil, err
	}

	query := `SELECT id, body FROM documents WHERE collection = ?`
	args := []any{t.name}
	if id, ok := cq[types.DefaultIdentifierField]; ok {
		idText, err := encodeID(id)
		if err != nil {
			// No stored document has an identifier that cannot be encoded.
			return []matchedRow{}, nil
		}
		query += ` AND id = ?`
		args = append(args, idText)
	}
	query += ` ORDER BY rowid`

	rows, err := t.backend.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var out []matchedRow
	for rows.Next() {
		var idText, body string
		if err := rows.Scan(&idText, &body); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc, err := decodeBody(body)
		if err != nil {
			return nil, err
		}
		if !cq.Matches(doc) {
			continue
		}
		id, _ := doc.Identifier()
		out = append(out, matchedRow{idText: idText, id: id, doc: doc})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

// convertQuery brings filter values into RecordType so they compare equal
// to stored values.
func (t *Table) convertQuery(q types.Query) (types.Query, error) {
	out := make(types.Query, len(q))
	for name, v := range q {
		cv, ok := t.backend.engine.Dispatch(v, types.RecordType)
		if !ok {
			return nil, fmt.Errorf("%w: %s cannot hold %s", types.ErrInvalidQuery, name, v.Kind())
		}
		out[name] = cv
	}
	return out, nil
}

// persistCollection rewrites the collection file from the database. An
// empty collection removes the file. The caller must hold b.mu.
func (b *Backend) persistCollection(collection string) error {
	if b.db == nil {
		return types.ErrDatabaseDetached
	}
	rows, err := b.db.Query(
		`SELECT id, body, created_at, updated_at FROM documents WHERE collection = ? ORDER BY rowid`,
		collection)
	if err != nil {
		return fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	var lines []j.RawMessage
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.body, &r.createdAt, &r.updatedAt); err != nil {
			return fmt.Errorf("scan %s: %w", collection, err)
		}
		line, err := encodeRecord(r)
		if err != nil {
			return fmt.Errorf("encode %s: %w", collection, err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate %s: %w", collection, err)
	}

	path := collectionPath(b.dataDir, collection)
	if len(lines) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", path, err)
		}
		return nil
	}
	return writeJSONL(path, lines)
}

// encodeID renders a hashable identifier as kind-tagged JSON.
func encodeID(id types.Value) (string, error) {
	if _, ok := types.KeyOf(id); !ok {
		return "", fmt.Errorf("%w: %s identifier", types.ErrInvalidID, id.Kind())
	}
	raw, err := codec.MarshalTyped(id)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrInvalidID, err)
	}
	return string(raw), nil
}

// decodeBody parses a stored body back into a Document.
func decodeBody(body string) (*types.Document, error) {
	v, err := codec.UnmarshalTyped([]byte(body), types.RecordType)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	obj, ok := v.AsObject()
	if !ok {
		return nil, fmt.Errorf("%w: stored %s is not a document", types.ErrInvalidData, v.Kind())
	}
	if d, ok := obj.(*types.Document); ok {
		return d, nil
	}
	keys := obj.Keys()
	sort.Slice(keys, func(i, k int) bool { return keys[i].Less(keys[k]) })
	d := types.RecordType.New().(*types.Document)
	for _, k := range keys {
		v, _ := obj.Get(k)
		d.Set(k, v)
	}
	return d, nil
}

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func timestamp() string {
	return time.Now().UTC().Format(timeLayout)
}
