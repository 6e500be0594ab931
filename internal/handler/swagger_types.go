package handler

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Request and response bodies for the study endpoints.

// --- Request Types ---

// ChatRequest represents the chat request body.
type ChatRequest struct {
	Message     string         `json:"message" example:"Explain photosynthesis simply"`
	UserProfile map[string]any `json:"userProfile"`
}

// QuizRequest represents the quiz generation request body.
type QuizRequest struct {
	Syllabus   string `json:"syllabus" example:"Cell structure, mitosis, meiosis"`
	Count      int    `json:"count" example:"10"`
	Difficulty string `json:"difficulty" example:"medium"`
	ClassLevel string `json:"classLevel" example:"Grade 10"`
}

// ScheduleRequest represents the schedule generation request body.
type ScheduleRequest struct {
	Date       string         `json:"date" example:"2026-10-15"`
	WakeTime   string         `json:"wakeTime" example:"06:30"`
	ClassStart *Hour          `json:"classStart" swaggertype:"integer" example:"8"`
	Prefs      map[string]any `json:"prefs"`
}

// Hour is an hour of the day sent either as a number (8) or a numeric string ("8").
type Hour int

// UnmarshalJSON accepts integral JSON numbers and numeric strings.
func (h *Hour) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) {
		return fmt.Errorf("hour must be a whole number, got %s", b)
	}
	*h = Hour(f)
	return nil
}

// IntPtr converts an optional Hour to *int.
func (h *Hour) IntPtr() *int {
	if h == nil {
		return nil
	}
	n := int(*h)
	return &n
}

// --- Response Types ---

// HealthResponse is returned by the liveness endpoint.
type HealthResponse struct {
	OK   bool  `json:"ok" example:"true"`
	Time int64 `json:"time" example:"1760529600000"`
}

// ReadyResponse is returned by the readiness endpoint when healthy.
type ReadyResponse struct {
	OK bool `json:"ok" example:"true"`
}

// ChatResponse carries the tutor's reply.
type ChatResponse struct {
	OK         bool            `json:"ok" example:"true"`
	Reply      string          `json:"reply"`
	Structured any             `json:"structured,omitempty"`
	Raw        json.RawMessage `json:"raw" swaggertype:"object"`
}

// QuizResponse carries the generated questions.
type QuizResponse struct {
	OK   bool  `json:"ok" example:"true"`
	Quiz []any `json:"quiz"`
}

// ScheduleResponse carries the generated schedule blocks.
type ScheduleResponse struct {
	OK       bool  `json:"ok" example:"true"`
	Schedule []any `json:"schedule"`
}
