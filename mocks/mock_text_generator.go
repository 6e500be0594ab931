package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"studybuddy/internal/domain"
)

// MockTextGenerator is a mock implementation of port.TextGenerator.
type MockTextGenerator struct {
	mock.Mock
}

func (m *MockTextGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GenerationResult), args.Error(1)
}
