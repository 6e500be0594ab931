package port

import (
	"context"

	"studybuddy/internal/domain"
)

// TextGenerator abstracts a single call to a generation provider.
type TextGenerator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error)
}
