// Package mocks provides testify mocks for the protocol and persistence contracts.
package mocks

import (
	"context"

	"github.com/netwirefiber/autodisconnect/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockRecordStore is a mock implementation of protocol.RecordStore interface.
type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) Get(ctx context.Context, module, id string) (models.Record, error) {
	args := m.Called(ctx, module, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(models.Record), args.Error(1)
}

func (m *MockRecordStore) Put(ctx context.Context, module, id string, fields map[string]any) error {
	args := m.Called(ctx, module, id, fields)

	return args.Error(0)
}

func (m *MockRecordStore) Query(ctx context.Context, module string, filter models.Filter) ([]models.Record, error) {
	args := m.Called(ctx, module, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.Record), args.Error(1)
}

// MockRouter is a mock implementation of protocol.Router interface.
type MockRouter struct {
	mock.Mock
}

func (m *MockRouter) FindAccount(ctx context.Context, username string) ([]byte, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockRouter) SetAccountEnabled(ctx context.Context, accountID string, enabled bool) error {
	args := m.Called(ctx, accountID, enabled)

	return args.Error(0)
}

// MockLookupClient is a mock implementation of protocol.LookupClient interface.
type MockLookupClient struct {
	mock.Mock
}

func (m *MockLookupClient) GetRecord(ctx context.Context, module, id string) (models.Record, error) {
	args := m.Called(ctx, module, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(models.Record), args.Error(1)
}

func (m *MockLookupClient) PutRecord(ctx context.Context, module, id string, fields map[string]any) error {
	args := m.Called(ctx, module, id, fields)

	return args.Error(0)
}

func (m *MockLookupClient) QueryRecords(ctx context.Context, module string, filter models.Filter) ([]models.Record, error) {
	args := m.Called(ctx, module, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.Record), args.Error(1)
}

func (m *MockLookupClient) FindPPPoEAccount(ctx context.Context, username string) (models.PPPoEAccount, error) {
	args := m.Called(ctx, username)

	return args.Get(0).(models.PPPoEAccount), args.Error(1)
}

func (m *MockLookupClient) SetPPPoEAccountEnabled(ctx context.Context, accountID string, enabled bool) error {
	args := m.Called(ctx, accountID, enabled)

	return args.Error(0)
}
