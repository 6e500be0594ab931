package domain

import (
	"encoding/json"
	"time"
)

// GenerationRequest is a single prompt sent to the generation provider.
// Zero values for the optional parameters mean "use the client default".
type GenerationRequest struct {
	Prompt          string
	Temperature     *float64
	CandidateCount  int
	MaxOutputTokens int
}

// GenerationResult holds the provider's raw body alongside the text of the
// first candidate. Raw is never modified so callers can surface it for debugging.
type GenerationResult struct {
	Raw   json.RawMessage
	Text  string
	Model string
}

// UsageRecord is one row of the ai_usage table.
type UsageRecord struct {
	UserID        string    `db:"user_id" json:"user_id"`
	FunctionName  string    `db:"function_name" json:"function_name"`
	TokensUsed    int       `db:"tokens_used" json:"tokens_used"`
	CostEstimated float64   `db:"cost_estimated" json:"cost_estimated"`
	CreatedAt     time.Time `db:"created_at" json:"-"`
}

// QuizQuestion is the shape each generated quiz item is asked to follow.
type QuizQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation,omitempty"`
}

// ScheduleItem is one block of a generated daily schedule.
type ScheduleItem struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Title string `json:"title"`
	Note  string `json:"note,omitempty"`
}
