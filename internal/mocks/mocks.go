package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"availability-service/internal/rabbitmq"
	"availability-service/internal/store"
)

// MockPublisher mocks RabbitMQ publisher behavior for telemetry and
// domain events.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ rabbitmq.Publisher = (*MockPublisher)(nil)

// MockStore mocks the document store for failure-path tests; happy
// paths use store.MemoryStore instead.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Get(ctx context.Context, collection, id string) (store.Doc, error) {
	args := m.Called(ctx, collection, id)
	return args.Get(0).(store.Doc), args.Error(1)
}

func (m *MockStore) Insert(ctx context.Context, collection string, v any) (string, error) {
	args := m.Called(ctx, collection, v)
	return args.String(0), args.Error(1)
}

func (m *MockStore) Set(ctx context.Context, collection, id string, v any) error {
	args := m.Called(ctx, collection, id, v)
	return args.Error(0)
}

func (m *MockStore) Update(ctx context.Context, collection, id string, fields store.Filter) error {
	args := m.Called(ctx, collection, id, fields)
	return args.Error(0)
}

func (m *MockStore) Delete(ctx context.Context, collection, id string) error {
	args := m.Called(ctx, collection, id)
	return args.Error(0)
}

func (m *MockStore) Query(ctx context.Context, collection string, filter store.Filter) ([]store.Doc, error) {
	args := m.Called(ctx, collection, filter)
	var docs []store.Doc
	if val := args.Get(0); val != nil {
		docs = val.([]store.Doc)
	}
	return docs, args.Error(1)
}

func (m *MockStore) LiveQuery(ctx context.Context, collection string, filter store.Filter) (store.Subscription, error) {
	args := m.Called(ctx, collection, filter)
	var sub store.Subscription
	if val := args.Get(0); val != nil {
		sub = val.(store.Subscription)
	}
	return sub, args.Error(1)
}

func (m *MockStore) RunTransaction(ctx context.Context, fn func(txn store.Txn) error) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

var _ store.Store = (*MockStore)(nil)
