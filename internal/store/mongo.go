package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"availability-service/internal/logger"
)

// MongoStore implements Store on a MongoDB database. Transactions run
// inside a session with the driver's retry-on-transient-error semantics;
// live queries re-run the find on every change-stream event.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) Get(ctx context.Context, collection, id string) (Doc, error) {
	var raw bson.Raw
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if err != nil {
		return Doc{}, mapMongoErr(err)
	}
	return Doc{ID: id, raw: raw}, nil
}

func (s *MongoStore) Insert(ctx context.Context, collection string, v any) (string, error) {
	id := primitive.NewObjectID().Hex()
	raw, err := marshalWithID(id, v)
	if err != nil {
		return "", err
	}
	if _, err := s.db.Collection(collection).InsertOne(ctx, raw); err != nil {
		return "", mapMongoErr(err)
	}
	return id, nil
}

func (s *MongoStore) Set(ctx context.Context, collection, id string, v any) error {
	raw, err := marshalWithID(id, v)
	if err != nil {
		return err
	}
	_, err = s.db.Collection(collection).ReplaceOne(ctx,
		bson.M{"_id": id}, raw, options.Replace().SetUpsert(true))
	return mapMongoErr(err)
}

func (s *MongoStore) Update(ctx context.Context, collection, id string, fields Filter) error {
	res, err := s.db.Collection(collection).UpdateOne(ctx,
		bson.M{"_id": id}, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return mapMongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	return mapMongoErr(err)
}

func (s *MongoStore) Query(ctx context.Context, collection string, filter Filter) ([]Doc, error) {
	cur, err := s.db.Collection(collection).Find(ctx, bson.M(filter))
	if err != nil {
		return nil, mapMongoErr(err)
	}
	defer cur.Close(ctx)

	var docs []Doc
	for cur.Next(ctx) {
		var raw bson.Raw
		if err := cur.Decode(&raw); err != nil {
			return nil, mapMongoErr(err)
		}
		docs = append(docs, Doc{ID: docID(raw), raw: raw})
	}
	if err := cur.Err(); err != nil {
		return nil, mapMongoErr(err)
	}
	return docs, nil
}

func (s *MongoStore) LiveQuery(ctx context.Context, collection string, filter Filter) (Subscription, error) {
	// The subscription outlives the request that opened it; its
	// lifetime is bounded by Close, not by the caller's context.
	streamCtx, cancel := context.WithCancel(context.Background())

	stream, err := s.db.Collection(collection).Watch(streamCtx, mongo.Pipeline{})
	if err != nil {
		cancel()
		return nil, mapMongoErr(err)
	}

	sub := &mongoSub{
		ch:     make(chan []Doc, 1),
		cancel: cancel,
	}

	go func() {
		defer close(sub.ch)
		defer stream.Close(streamCtx)

		snapshot, err := s.Query(streamCtx, collection, filter)
		if err != nil {
			logger.Warnf("live query %s: initial snapshot: %v", collection, err)
			return
		}
		sub.push(snapshot)

		for stream.Next(streamCtx) {
			snapshot, err := s.Query(streamCtx, collection, filter)
			if err != nil {
				logger.Warnf("live query %s: refresh: %v", collection, err)
				return
			}
			sub.push(snapshot)
		}
	}()

	return sub, nil
}

func (s *MongoStore) RunTransaction(ctx context.Context, fn func(txn Txn) error) error {
	sess, err := s.db.Client().StartSession()
	if err != nil {
		return mapMongoErr(err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(&mongoTxn{db: s.db, sc: sc})
	})
	return mapMongoErr(err)
}

type mongoSub struct {
	ch        chan []Doc
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func (sub *mongoSub) Snapshots() <-chan []Doc { return sub.ch }

func (sub *mongoSub) Close() {
	sub.closeOnce.Do(sub.cancel)
}

func (sub *mongoSub) push(docs []Doc) {
	select {
	case <-sub.ch:
	default:
	}
	select {
	case sub.ch <- docs:
	default:
	}
}

type mongoTxn struct {
	db *mongo.Database
	sc mongo.SessionContext
}

func (t *mongoTxn) Get(collection, id string) (Doc, error) {
	var raw bson.Raw
	err := t.db.Collection(collection).FindOne(t.sc, bson.M{"_id": id}).Decode(&raw)
	if err != nil {
		return Doc{}, mapMongoErr(err)
	}
	return Doc{ID: id, raw: raw}, nil
}

func (t *mongoTxn) Set(collection, id string, v any) error {
	raw, err := marshalWithID(id, v)
	if err != nil {
		return err
	}
	_, err = t.db.Collection(collection).ReplaceOne(t.sc,
		bson.M{"_id": id}, raw, options.Replace().SetUpsert(true))
	return mapMongoErr(err)
}

func (t *mongoTxn) Update(collection, id string, fields Filter) error {
	res, err := t.db.Collection(collection).UpdateOne(t.sc,
		bson.M{"_id": id}, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return mapMongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *mongoTxn) Delete(collection, id string) error {
	_, err := t.db.Collection(collection).DeleteOne(t.sc, bson.M{"_id": id})
	return mapMongoErr(err)
}

// mapMongoErr translates driver failures into the store's error kinds.
// Errors it does not recognize pass through unchanged so domain errors
// returned from inside a transaction survive the boundary.
func mapMongoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case errors.Is(err, mongo.ErrClientDisconnected), mongo.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		return err
	}
}
