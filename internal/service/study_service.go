package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"studybuddy/internal/domain"
	"studybuddy/internal/extract"
	"studybuddy/internal/llm"
	"studybuddy/internal/logging"
	"studybuddy/internal/port"
)

const (
	chatMaxOutputTokens = 512
	noReplyText         = "No reply"

	defaultQuizCount      = 10
	maxQuizCount          = 50
	defaultDifficulty     = "medium"
	defaultScheduleDate   = "today"
	defaultWakeTime       = "06:30"
	defaultClassStartHour = 8
)

// ChatInput is the DTO for a tutoring chat message.
type ChatInput struct {
	Message     string
	UserProfile map[string]any
	UserID      string
}

// ChatOutput carries the reply text and, when the reply embeds JSON, its parsed value.
type ChatOutput struct {
	Reply      string          `json:"reply"`
	Structured any             `json:"structured,omitempty"`
	Raw        json.RawMessage `json:"raw"`
}

// QuizInput is the DTO for quiz generation. Zero values select defaults.
type QuizInput struct {
	Syllabus   string
	Count      int
	Difficulty string
	ClassLevel string
	UserID     string
}

// QuizOutput holds the generated quiz items, undecoded beyond JSON.
type QuizOutput struct {
	Quiz []any `json:"quiz"`
}

// ScheduleInput is the DTO for schedule generation. Nil ClassStart selects 8:00.
type ScheduleInput struct {
	Date       string
	WakeTime   string
	ClassStart *int
	Prefs      map[string]any
	UserID     string
}

// ScheduleOutput holds the generated schedule items.
type ScheduleOutput struct {
	Schedule []any `json:"schedule"`
}

// StudyService turns student requests into generation calls.
type StudyService interface {
	Chat(ctx context.Context, input ChatInput) (*ChatOutput, error)
	GenerateQuiz(ctx context.Context, input QuizInput) (*QuizOutput, error)
	GenerateSchedule(ctx context.Context, input ScheduleInput) (*ScheduleOutput, error)
}

type studyService struct {
	generator port.TextGenerator
	usage     port.UsageTracker
	log       zerolog.Logger
}

// NewStudyService creates a new StudyService implementation.
func NewStudyService(generator port.TextGenerator, usage port.UsageTracker, log zerolog.Logger) StudyService {
	return &studyService{
		generator: generator,
		usage:     usage,
		log:       log,
	}
}

func (s *studyService) Chat(ctx context.Context, input ChatInput) (*ChatOutput, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, fmt.Errorf("message required: %w", domain.ErrInvalidRequest)
	}

	res, err := s.generate(ctx, domain.GenerationRequest{
		Prompt:          llm.BuildChatPrompt(message, input.UserProfile),
		MaxOutputTokens: chatMaxOutputTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("study.Chat: %w", err)
	}

	reply := res.Text
	if reply == "" {
		reply = noReplyText
	}
	s.usage.Track(input.UserID, domain.FunctionChat, reply)

	out := &ChatOutput{Reply: reply, Raw: res.Raw}
	// Prose is a valid chat reply; only attach structure when one is present.
	if parsed, err := extract.Extract(reply, extract.ShapeAny); err == nil {
		out.Structured = parsed.Value
	}
	return out, nil
}

func (s *studyService) GenerateQuiz(ctx context.Context, input QuizInput) (*QuizOutput, error) {
	syllabus := strings.TrimSpace(input.Syllabus)
	if syllabus == "" {
		return nil, fmt.Errorf("syllabus required: %w", domain.ErrInvalidRequest)
	}
	count := input.Count
	if count == 0 {
		count = defaultQuizCount
	}
	if count < 1 || count > maxQuizCount {
		return nil, fmt.Errorf("count must be between 1 and %d: %w", maxQuizCount, domain.ErrInvalidRequest)
	}
	difficulty := input.Difficulty
	if difficulty == "" {
		difficulty = defaultDifficulty
	}

	prompt := llm.BuildQuizPrompt(llm.QuizParams{
		Syllabus:   syllabus,
		Count:      count,
		Difficulty: difficulty,
		ClassLevel: input.ClassLevel,
	})

	items, err := s.generateArray(ctx, prompt, input.UserID, domain.FunctionQuiz)
	if err != nil {
		return nil, fmt.Errorf("study.GenerateQuiz: %w", err)
	}
	return &QuizOutput{Quiz: items}, nil
}

func (s *studyService) GenerateSchedule(ctx context.Context, input ScheduleInput) (*ScheduleOutput, error) {
	params := llm.ScheduleParams{
		Date:       input.Date,
		WakeTime:   input.WakeTime,
		ClassStart: defaultClassStartHour,
		Prefs:      input.Prefs,
	}
	if params.Date == "" {
		params.Date = defaultScheduleDate
	}
	if params.WakeTime == "" {
		params.WakeTime = defaultWakeTime
	}
	if input.ClassStart != nil {
		if *input.ClassStart < 0 || *input.ClassStart > 23 {
			return nil, fmt.Errorf("classStart must be an hour between 0 and 23: %w", domain.ErrInvalidRequest)
		}
		params.ClassStart = *input.ClassStart
	}
	if params.Prefs == nil {
		params.Prefs = map[string]any{}
	}

	items, err := s.generateArray(ctx, llm.BuildSchedulePrompt(params), input.UserID, domain.FunctionSchedule)
	if err != nil {
		return nil, fmt.Errorf("study.GenerateSchedule: %w", err)
	}
	return &ScheduleOutput{Schedule: items}, nil
}

// generateArray runs one generation and extracts a JSON array from the reply.
// Extraction failures are returned as *extract.Error so callers can surface the text.
func (s *studyService) generateArray(ctx context.Context, prompt, userID, function string) ([]any, error) {
	res, err := s.generate(ctx, domain.GenerationRequest{Prompt: prompt})
	if err != nil {
		return nil, err
	}
	s.usage.Track(userID, function, res.Text)

	parsed, err := extract.Extract(res.Text, extract.ShapeArray)
	if err != nil {
		logging.FromContext(ctx, &s.log).Warn().
			Str("function", function).
			Int("text_len", len(res.Text)).
			Msg("could not extract JSON array from reply")
		return nil, err
	}

	logging.FromContext(ctx, &s.log).Debug().
		Str("function", function).
		Stringer("outcome", parsed.Outcome).
		Msg("structured reply extracted")

	return parsed.Value.([]any), nil
}

// generate calls the provider on a context detached from the caller's
// cancellation: a client disconnect does not abort the outbound call.
func (s *studyService) generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	return s.generator.Generate(context.WithoutCancel(ctx), req)
}
