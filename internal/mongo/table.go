package mongo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// Table implements types.Table on one MongoDB collection.
type Table struct {
	name    string
	coll    *mongo.Collection
	backend *Backend
	log     logrus.FieldLogger
}

var _ types.Table = (*Table)(nil)

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

// Store inserts doc, assigning an ObjectID hex string when it has no
// identifier.
func (t *Table) Store(ctx context.Context, doc *types.Document) (types.Value, error) {
	if doc == nil {
		return types.Value{}, fmt.Errorf("%w: nil document", types.ErrInvalidData)
	}
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	if err := t.ready(ctx); err != nil {
		return types.Value{}, err
	}
	if _, ok := doc.Identifier(); !ok {
		doc = doc.Clone()
		doc.SetField(types.DefaultIdentifierField, t.GenerateIdentifier())
	}

	d, err := t.encode(doc)
	if err != nil {
		return types.Value{}, err
	}
	id, err := t.idValue(d)
	if err != nil {
		return types.Value{}, err
	}

	if _, err := t.coll.InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return types.Value{}, fmt.Errorf("%w: %v", types.ErrDuplicateID, id)
		}
		return types.Value{}, fmt.Errorf("insert document: %w", err)
	}
	t.log.WithField("id", id).Debug("stored")
	return id, nil
}

// FindOne returns the document with the given identifier.
func (t *Table) FindOne(ctx context.Context, id types.Value) (*types.Document, error) {
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	if err := t.ready(ctx); err != nil {
		return nil, err
	}
	filter, err := t.idFilter(id)
	if err != nil {
		return nil, err
	}
	return t.findOne(ctx, filter)
}

// FindOneMatching returns the first document matching q.
func (t *Table) FindOneMatching(ctx context.Context, q types.Query) (*types.Document, error) {
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	if err := t.ready(ctx); err != nil {
		return nil, err
	}
	filter, err := t.filter(q)
	if err != nil {
		return nil, err
	}
	return t.findOne(ctx, filter)
}

func (t *Table) findOne(ctx context.Context, filter bson.D) (*types.Document, error) {
	var d bson.D
	err := t.coll.FindOne(ctx, filter).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find document: %w", err)
	}
	return FromBSON(d)
}

// Find returns every document matching q, ordered by s.
func (t *Table) Find(ctx context.Context, q types.Query, s types.Sort) ([]*types.Document, error) {
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	if err := t.ready(ctx); err != nil {
		return nil, err
	}
	filter, err := t.filter(q)
	if err != nil {
		return nil, err
	}
	opts := options.Find()
	if len(s) > 0 {
		opts.SetSort(sortDoc(s))
	}

	cur, err := t.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find documents: %w", err)
	}
	var raw []bson.D
	if err := cur.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("read documents: %w", err)
	}

	docs := make([]*types.Document, 0, len(raw))
	for _, d := range raw {
		doc, err := FromBSON(d)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Update replaces every document matching q with doc, keeping each
// document's stored identifier.
func (t *Table) Update(ctx context.Context, q types.Query, doc *types.Document) (int, error) {
	if doc == nil {
		return 0, fmt.Errorf("%w: nil document", types.ErrInvalidData)
	}
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	if err := t.ready(ctx); err != nil {
		return 0, err
	}
	filter, err := t.filter(q)
	if err != nil {
		return 0, err
	}
	body, err := t.body(doc)
	if err != nil {
		return 0, err
	}

	cur, err := t.coll.Find(ctx, filter, options.Find().SetProjection(bson.D{{Key: types.DefaultIdentifierField, Value: 1}}))
	if err != nil {
		return 0, fmt.Errorf("find documents: %w", err)
	}
	var matched []bson.D
	if err := cur.All(ctx, &matched); err != nil {
		return 0, fmt.Errorf("read documents: %w", err)
	}

	n := 0
	for _, m := range matched {
		rawID, ok := lookup(m, types.DefaultIdentifierField)
		if !ok {
			continue
		}
		res, err := t.coll.ReplaceOne(ctx, bson.D{{Key: types.DefaultIdentifierField, Value: rawID}}, withID(rawID, body))
		if err != nil {
			return n, fmt.Errorf("replace document: %w", err)
		}
		n += int(res.MatchedCount)
	}
	t.log.WithField("count", n).Debug("updated")
	return n, nil
}

// UpdateByID replaces the document with the given identifier.
func (t *Table) UpdateByID(ctx context.Context, id types.Value, doc *types.Document) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", types.ErrInvalidData)
	}
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	if err := t.ready(ctx); err != nil {
		return err
	}
	filter, err := t.idFilter(id)
	if err != nil {
		return err
	}
	body, err := t.body(doc)
	if err != nil {
		return err
	}

	res, err := t.coll.ReplaceOne(ctx, filter, withID(filter[0].Value, body))
	if err != nil {
		return fmt.Errorf("replace document: %w", err)
	}
	if res.MatchedCount == 0 {
		return types.ErrNotFound
	}
	t.log.WithField("id", id).Debug("updated")
	return nil
}

// Delete removes the document with the given identifier.
func (t *Table) Delete(ctx context.Context, id types.Value) error {
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	if err := t.ready(ctx); err != nil {
		return err
	}
	filter, err := t.idFilter(id)
	if err != nil {
		return err
	}
	res, err := t.coll.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if res.DeletedCount == 0 {
		return types.ErrNotFound
	}
	t.log.WithField("id", id).Debug("deleted")
	return nil
}

// GenerateIdentifier returns a fresh ObjectID as a hex string.
func (t *Table) GenerateIdentifier() types.Value {
	return types.String(primitive.NewObjectID().Hex())
}

// encode converts doc to DocumentType and maps it onto BSON. Fields that do
// not convert make the whole document invalid.
func (t *Table) encode(doc types.Object) (bson.D, error) {
	res := t.backend.engine.Object(doc, types.DocumentType)
	if !res.Complete() {
		names := lo.Map(res.Remainder.Keys(), func(k types.Key, _ int) string { return k.String() })
		return nil, fmt.Errorf("%w: fields not representable: %s",
			types.ErrInvalidData, strings.Join(names, ", "))
	}
	return ToBSON(res.Converted)
}

// body encodes doc without its identifier field.
func (t *Table) body(doc *types.Document) (bson.D, error) {
	next := types.Clone(doc)
	next.Delete(types.StringKey(types.DefaultIdentifierField))
	return t.encode(next)
}

func (t *Table) idValue(d bson.D) (types.Value, error) {
	raw, ok := lookup(d, types.DefaultIdentifierField)
	if !ok {
		return types.Value{}, fmt.Errorf("%w: missing %s", types.ErrInvalidID, types.DefaultIdentifierField)
	}
	id, err := bsonEngine.Import(raw, types.DocumentType)
	if err != nil {
		return types.Value{}, fmt.Errorf("%w: %v", types.ErrInvalidID, err)
	}
	if _, ok := types.KeyOf(id); !ok {
		return types.Value{}, fmt.Errorf("%w: %s identifier", types.ErrInvalidID, id.Kind())
	}
	return id, nil
}

// idFilter converts a caller-supplied identifier the way Store converts the
// identifier field.
func (t *Table) idFilter(id types.Value) (bson.D, error) {
	v, ok := t.backend.engine.Represent(id, types.DocumentType.ValueKinds())
	if !ok {
		return nil, fmt.Errorf("%w: %s identifier", types.ErrInvalidID, id.Kind())
	}
	if _, ok := types.KeyOf(v); !ok {
		return nil, fmt.Errorf("%w: %s identifier", types.ErrInvalidID, v.Kind())
	}
	x, err := toBSONValue(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidID, err)
	}
	return bson.D{{Key: types.DefaultIdentifierField, Value: x}}, nil
}

// filter converts q into a driver equality filter. Fields are sorted so
// the filter is deterministic.
func (t *Table) filter(q types.Query) (bson.D, error) {
	names := lo.Keys(q)
	slices.Sort(names)

	d := make(bson.D, 0, len(q))
	for _, name := range names {
		cv, ok := t.backend.engine.Dispatch(q[name], types.DocumentType)
		if !ok {
			return nil, fmt.Errorf("%w: %s cannot hold %s", types.ErrInvalidQuery, name, q[name].Kind())
		}
		x, err := toBSONValue(cv)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", types.ErrInvalidQuery, name, err)
		}
		d = append(d, bson.E{Key: name, Value: x})
	}
	return d, nil
}

func lookup(d bson.D, key string) (any, bool) {
	for _, e := range d {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

func withID(id any, body bson.D) bson.D {
	out := make(bson.D, 0, len(body)+1)
	out = append(out, bson.E{Key: types.DefaultIdentifierField, Value: id})
	return append(out, body...)
}
