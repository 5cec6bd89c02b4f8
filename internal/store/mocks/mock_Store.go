// Package mocks provides test doubles for the store.
package mocks

import (
	"context"
	"iter"
	"time"

	mock "github.com/stretchr/testify/mock"

	store "github.com/sells-group/quake-cli/internal/store"
)

// MockStore is a mock type for the Store interface.
type MockStore struct {
	mock.Mock
}

// Table provides a mock function with no fields
func (_m *MockStore) Table() string {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Table")
	}

	return ret.String(0)
}

// Ping provides a mock function with given fields: ctx
func (_m *MockStore) Ping(ctx context.Context) error {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for Ping")
	}

	return ret.Error(0)
}

// Count provides a mock function with given fields: ctx
func (_m *MockStore) Count(ctx context.Context) (int64, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for Count")
	}

	if rf, ok := ret.Get(0).(func(context.Context) (int64, error)); ok {
		return rf(ctx)
	}

	return ret.Get(0).(int64), ret.Error(1)
}

// EstimateCount provides a mock function with given fields: ctx
func (_m *MockStore) EstimateCount(ctx context.Context) (int64, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for EstimateCount")
	}

	return ret.Get(0).(int64), ret.Error(1)
}

// Columns provides a mock function with given fields: ctx
func (_m *MockStore) Columns(ctx context.Context) (store.Columns, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for Columns")
	}

	var r0 store.Columns
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(store.Columns)
	}

	return r0, ret.Error(1)
}

// InsertBatch provides a mock function with given fields: ctx, rows
func (_m *MockStore) InsertBatch(ctx context.Context, rows []store.Row) ([]string, error) {
	ret := _m.Called(ctx, rows)

	if len(ret) == 0 {
		panic("no return value specified for InsertBatch")
	}

	if rf, ok := ret.Get(0).(func(context.Context, []store.Row) ([]string, error)); ok {
		return rf(ctx, rows)
	}

	var r0 []string
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]string)
	}

	return r0, ret.Error(1)
}

// UpdatePointGeometry provides a mock function with given fields: ctx
func (_m *MockStore) UpdatePointGeometry(ctx context.Context) (int64, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for UpdatePointGeometry")
	}

	return ret.Get(0).(int64), ret.Error(1)
}

// UpdateUTCTime provides a mock function with given fields: ctx
func (_m *MockStore) UpdateUTCTime(ctx context.Context) (int64, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for UpdateUTCTime")
	}

	return ret.Get(0).(int64), ret.Error(1)
}

// Search provides a mock function with given fields: ctx, opts
func (_m *MockStore) Search(ctx context.Context, opts store.SearchOpts) (iter.Seq2[map[string]any, error], error) {
	ret := _m.Called(ctx, opts)

	if len(ret) == 0 {
		panic("no return value specified for Search")
	}

	var r0 iter.Seq2[map[string]any, error]
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(iter.Seq2[map[string]any, error])
	}

	return r0, ret.Error(1)
}

// StartRun provides a mock function with given fields: ctx, run
func (_m *MockStore) StartRun(ctx context.Context, run store.RunEntry) error {
	ret := _m.Called(ctx, run)

	if len(ret) == 0 {
		panic("no return value specified for StartRun")
	}

	return ret.Error(0)
}

// CompleteRun provides a mock function with given fields: ctx, id, result
func (_m *MockStore) CompleteRun(ctx context.Context, id string, result store.RunResult) error {
	ret := _m.Called(ctx, id, result)

	if len(ret) == 0 {
		panic("no return value specified for CompleteRun")
	}

	return ret.Error(0)
}

// FailRun provides a mock function with given fields: ctx, id, completedAt, errMsg
func (_m *MockStore) FailRun(ctx context.Context, id string, completedAt time.Time, errMsg string) error {
	ret := _m.Called(ctx, id, completedAt, errMsg)

	if len(ret) == 0 {
		panic("no return value specified for FailRun")
	}

	return ret.Error(0)
}

// ListRuns provides a mock function with given fields: ctx, limit
func (_m *MockStore) ListRuns(ctx context.Context, limit int) ([]store.RunEntry, error) {
	ret := _m.Called(ctx, limit)

	if len(ret) == 0 {
		panic("no return value specified for ListRuns")
	}

	var r0 []store.RunEntry
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]store.RunEntry)
	}

	return r0, ret.Error(1)
}

// LastSuccess provides a mock function with given fields: ctx
func (_m *MockStore) LastSuccess(ctx context.Context) (*time.Time, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for LastSuccess")
	}

	var r0 *time.Time
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*time.Time)
	}

	return r0, ret.Error(1)
}

// Close provides a mock function with no fields
func (_m *MockStore) Close() error {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Close")
	}

	return ret.Error(0)
}

// NewMockStore creates a new instance of MockStore. It also registers a
// testing interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewMockStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStore {
	m := &MockStore{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
