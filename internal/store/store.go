// Package store is the document-store collaborator boundary. The engine
// talks to it through the Store interface; MongoStore backs it in
// production and MemoryStore backs it in tests. Both encode documents
// with the bson codec so domain structs keep a single set of tags.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrUnavailable = errors.New("store unavailable")
)

// Filter matches documents by field equality.
type Filter map[string]any

// Doc is one stored document.
type Doc struct {
	ID  string
	raw bson.Raw
}

func (d Doc) Decode(out any) error {
	return bson.Unmarshal(d.raw, out)
}

// Txn is the handle passed to a transaction function. Every write issued
// through it commits atomically with the others or not at all. Deleting
// an absent document is not an error, so retried transactions stay
// idempotent.
type Txn interface {
	Get(collection, id string) (Doc, error)
	Set(collection, id string, v any) error
	Update(collection, id string, fields Filter) error
	Delete(collection, id string) error
}

// Subscription is a live query handle. Snapshots delivers the full
// result set on every relevant change; Close releases the subscription
// and may be called more than once.
type Subscription interface {
	Snapshots() <-chan []Doc
	Close()
}

type Store interface {
	Get(ctx context.Context, collection, id string) (Doc, error)
	// Insert persists v under a store-assigned id and returns it.
	Insert(ctx context.Context, collection string, v any) (string, error)
	Set(ctx context.Context, collection, id string, v any) error
	Update(ctx context.Context, collection, id string, fields Filter) error
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, filter Filter) ([]Doc, error)
	LiveQuery(ctx context.Context, collection string, filter Filter) (Subscription, error)
	RunTransaction(ctx context.Context, fn func(txn Txn) error) error
}

// marshalWithID encodes v and forces its _id field to id.
func marshalWithID(id string, v any) (bson.Raw, error) {
	data, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var m bson.M
	if err := bson.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	m["_id"] = id
	out, err := bson.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return bson.Raw(out), nil
}

func docID(raw bson.Raw) string {
	id, _ := raw.Lookup("_id").StringValueOK()
	return id
}
