package port

import (
	"context"

	"studybuddy/internal/domain"
)

// UsageRecorder persists ai_usage rows. Callers treat failures as non-fatal.
type UsageRecorder interface {
	Record(ctx context.Context, rec domain.UsageRecord) error
}

// UsageTracker schedules a usage record for a generated reply without blocking.
type UsageTracker interface {
	Track(userID, function, reply string)
}
