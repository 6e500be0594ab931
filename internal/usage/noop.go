package usage

import (
	"context"

	"github.com/rs/zerolog"

	"studybuddy/internal/domain"
	"studybuddy/internal/port"
)

type noopRecorder struct {
	log zerolog.Logger
}

// NewNoopRecorder creates a UsageRecorder that only logs the record at debug level.
func NewNoopRecorder(log zerolog.Logger) port.UsageRecorder {
	return &noopRecorder{log: log}
}

func (r *noopRecorder) Record(_ context.Context, rec domain.UsageRecord) error {
	r.log.Debug().
		Str("user_id", rec.UserID).
		Str("function", rec.FunctionName).
		Int("tokens", rec.TokensUsed).
		Float64("cost", rec.CostEstimated).
		Msg("[NOOP USAGE] ai_usage record")
	return nil
}
