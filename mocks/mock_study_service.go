package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"studybuddy/internal/service"
)

// MockStudyService is a mock implementation of service.StudyService.
type MockStudyService struct {
	mock.Mock
}

func (m *MockStudyService) Chat(ctx context.Context, input service.ChatInput) (*service.ChatOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ChatOutput), args.Error(1)
}

func (m *MockStudyService) GenerateQuiz(ctx context.Context, input service.QuizInput) (*service.QuizOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.QuizOutput), args.Error(1)
}

func (m *MockStudyService) GenerateSchedule(ctx context.Context, input service.ScheduleInput) (*service.ScheduleOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ScheduleOutput), args.Error(1)
}
