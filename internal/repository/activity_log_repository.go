package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// ActivityLogRepository appends rows to the legacy log table. Writes are
// best effort; callers log and continue on failure.
type ActivityLogRepository struct {
	db *sqlx.DB
}

// NewActivityLogRepository creates a new activity log repository.
func NewActivityLogRepository(db *sqlx.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

// Record stores one activity entry for a user.
func (r *ActivityLogRepository) Record(ctx context.Context, userID int64, action string) error {
	const query = `INSERT INTO log (user_id, action, url, method, ip_address, user_agent, created_at)
		VALUES ($1, $2, NULL, NULL, '127.0.0.1', 'System', $3)`
	if _, err := r.db.ExecContext(ctx, query, userID, action, time.Now().UTC()); err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	return nil
}
