package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"studybuddy/internal/domain"
)

// MockUsageRecorder is a mock implementation of port.UsageRecorder.
type MockUsageRecorder struct {
	mock.Mock
}

func (m *MockUsageRecorder) Record(ctx context.Context, rec domain.UsageRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}
