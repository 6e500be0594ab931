package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"studybuddy/internal/domain"
	"studybuddy/internal/port"
)

type usageRepo struct {
	db *sqlx.DB
}

// NewUsageRepo creates a new PostgreSQL-backed UsageRecorder.
func NewUsageRepo(db *sqlx.DB) port.UsageRecorder {
	return &usageRepo{db: db}
}

func (r *usageRepo) Record(ctx context.Context, rec domain.UsageRecord) error {
	query := `INSERT INTO ai_usage (user_id, function_name, tokens_used, cost_estimated, created_at)
		VALUES (:user_id, :function_name, :tokens_used, :cost_estimated, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("usageRepo.Record: %w", err)
	}
	return nil
}
