package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockNotifier is a mock implementation of protocol.Notifier interface.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifySuccess(ctx context.Context, message string) {
	m.Called(ctx, message)
}

func (m *MockNotifier) NotifyError(ctx context.Context, message string) {
	m.Called(ctx, message)
}

func (m *MockNotifier) ShowProgress(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockNotifier) HideProgress(ctx context.Context) {
	m.Called(ctx)
}
