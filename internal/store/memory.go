package store

import (
	"context"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// MemoryStore is an in-process Store used by tests. It keeps documents
// as bson so Decode behaves exactly like the Mongo-backed store, and it
// delivers live-query snapshots synchronously on every commit.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]map[string]bson.Raw
	subs map[*memorySub]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[string]bson.Raw),
		subs: make(map[*memorySub]struct{}),
	}
}

func (s *MemoryStore) collection(name string) map[string]bson.Raw {
	c, ok := s.data[name]
	if !ok {
		c = make(map[string]bson.Raw)
		s.data[name] = c
	}
	return c
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Doc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.collection(collection)[id]
	if !ok {
		return Doc{}, ErrNotFound
	}
	return Doc{ID: id, raw: raw}, nil
}

func (s *MemoryStore) Insert(ctx context.Context, collection string, v any) (string, error) {
	id := uuid.NewString()
	raw, err := marshalWithID(id, v)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collection(collection)[id] = raw
	s.notifyLocked(collection)
	return id, nil
}

func (s *MemoryStore) Set(ctx context.Context, collection, id string, v any) error {
	raw, err := marshalWithID(id, v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collection(collection)[id] = raw
	s.notifyLocked(collection)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.collection(collection)[id]
	if !ok {
		return ErrNotFound
	}
	updated, err := applyFields(raw, id, fields)
	if err != nil {
		return err
	}
	s.collection(collection)[id] = updated
	s.notifyLocked(collection)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collection(collection), id)
	s.notifyLocked(collection)
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, collection string, filter Filter) ([]Doc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryLocked(collection, filter), nil
}

func (s *MemoryStore) queryLocked(collection string, filter Filter) []Doc {
	var docs []Doc
	for id, raw := range s.collection(collection) {
		if matches(raw, filter) {
			docs = append(docs, Doc{ID: id, raw: raw})
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs
}

func (s *MemoryStore) LiveQuery(ctx context.Context, collection string, filter Filter) (Subscription, error) {
	sub := &memorySub{
		store:      s,
		collection: collection,
		filter:     filter,
		ch:         make(chan []Doc, 1),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub] = struct{}{}
	sub.push(s.queryLocked(collection, filter))
	return sub, nil
}

// RunTransaction stages all writes and commits them as one unit; any
// error from fn discards the staged writes. fn must issue reads and
// writes through the Txn handle only.
func (s *MemoryStore) RunTransaction(ctx context.Context, fn func(txn Txn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn := &memoryTxn{store: s, staged: make(map[string]map[string]*bson.Raw)}
	if err := fn(txn); err != nil {
		return err
	}

	for collection, writes := range txn.staged {
		for id, raw := range writes {
			if raw == nil {
				delete(s.collection(collection), id)
			} else {
				s.collection(collection)[id] = *raw
			}
		}
		s.notifyLocked(collection)
	}
	return nil
}

func (s *MemoryStore) notifyLocked(collection string) {
	for sub := range s.subs {
		if sub.collection == collection {
			sub.push(s.queryLocked(collection, sub.filter))
		}
	}
}

type memorySub struct {
	store      *MemoryStore
	collection string
	filter     Filter
	ch         chan []Doc
	closeOnce  sync.Once
}

func (sub *memorySub) Snapshots() <-chan []Doc { return sub.ch }

func (sub *memorySub) Close() {
	sub.closeOnce.Do(func() {
		sub.store.mu.Lock()
		delete(sub.store.subs, sub)
		sub.store.mu.Unlock()
		close(sub.ch)
	})
}

// push replaces any undelivered snapshot with the latest one.
func (sub *memorySub) push(docs []Doc) {
	select {
	case <-sub.ch:
	default:
	}
	select {
	case sub.ch <- docs:
	default:
	}
}

type memoryTxn struct {
	store  *MemoryStore
	staged map[string]map[string]*bson.Raw // nil entry marks a delete
}

func (t *memoryTxn) staging(collection string) map[string]*bson.Raw {
	c, ok := t.staged[collection]
	if !ok {
		c = make(map[string]*bson.Raw)
		t.staged[collection] = c
	}
	return c
}

func (t *memoryTxn) Get(collection, id string) (Doc, error) {
	if raw, ok := t.staging(collection)[id]; ok {
		if raw == nil {
			return Doc{}, ErrNotFound
		}
		return Doc{ID: id, raw: *raw}, nil
	}
	raw, ok := t.store.collection(collection)[id]
	if !ok {
		return Doc{}, ErrNotFound
	}
	return Doc{ID: id, raw: raw}, nil
}

func (t *memoryTxn) Set(collection, id string, v any) error {
	raw, err := marshalWithID(id, v)
	if err != nil {
		return err
	}
	t.staging(collection)[id] = &raw
	return nil
}

func (t *memoryTxn) Update(collection, id string, fields Filter) error {
	doc, err := t.Get(collection, id)
	if err != nil {
		return err
	}
	updated, err := applyFields(doc.raw, id, fields)
	if err != nil {
		return err
	}
	t.staging(collection)[id] = &updated
	return nil
}

func (t *memoryTxn) Delete(collection, id string) error {
	t.staging(collection)[id] = nil
	return nil
}

func applyFields(raw bson.Raw, id string, fields Filter) (bson.Raw, error) {
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	for k, v := range fields {
		m[k] = v
	}
	m["_id"] = id
	out, err := bson.Marshal(m)
	if err != nil {
		return nil, err
	}
	return bson.Raw(out), nil
}

func matches(raw bson.Raw, filter Filter) bool {
	if len(filter) == 0 {
		return true
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return false
	}
	for k, want := range filter {
		got, ok := m[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}
