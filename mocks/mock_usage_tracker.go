package mocks

import (
	"github.com/stretchr/testify/mock"
)

// MockUsageTracker is a mock implementation of port.UsageTracker.
type MockUsageTracker struct {
	mock.Mock
}

func (m *MockUsageTracker) Track(userID, function, reply string) {
	m.Called(userID, function, reply)
}
