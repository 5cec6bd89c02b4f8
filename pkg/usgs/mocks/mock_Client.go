// Package mocks provides test doubles for the usgs client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	usgs "github.com/sells-group/quake-cli/pkg/usgs"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Fetch provides a mock function with given fields: ctx, req
func (_m *MockClient) Fetch(ctx context.Context, req usgs.Request) (string, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for Fetch")
	}

	if rf, ok := ret.Get(0).(func(context.Context, usgs.Request) (string, error)); ok {
		return rf(ctx, req)
	}

	return ret.String(0), ret.Error(1)
}

// FetchToFile provides a mock function with given fields: ctx, req, path
func (_m *MockClient) FetchToFile(ctx context.Context, req usgs.Request, path string) (string, error) {
	ret := _m.Called(ctx, req, path)

	if len(ret) == 0 {
		panic("no return value specified for FetchToFile")
	}

	if rf, ok := ret.Get(0).(func(context.Context, usgs.Request, string) (string, error)); ok {
		return rf(ctx, req, path)
	}

	return ret.String(0), ret.Error(1)
}

// NewMockClient creates a new instance of MockClient. It also registers a
// testing interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
