package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/example/recall/pkg/models"
)

// ReviewLogRepository reads the history of graded reviews
type ReviewLogRepository struct {
	db *sqlx.DB
}

// NewReviewLogRepository creates a new repository instance
func NewReviewLogRepository(db *sqlx.DB) *ReviewLogRepository {
	return &ReviewLogRepository{db: db}
}

// ListByItem returns an item's reviews, oldest first
func (r *ReviewLogRepository) ListByItem(ctx context.Context, itemID int64) ([]models.ReviewLog, error) {
	var logs []models.ReviewLog
	err := r.db.SelectContext(ctx, &logs, r.db.Rebind(`
		SELECT id, item_id, session_id, grade, interval_days, repetition, ease_factor, reviewed_at
		FROM review_logs
		WHERE item_id = ?
		ORDER BY reviewed_at, id`), itemID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list review logs")
	}
	return logs, nil
}

// CountSince counts a learner's reviews at or after since
func (r *ReviewLogRepository) CountSince(ctx context.Context, learnerID int64, since time.Time) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`
		SELECT COUNT(*)
		FROM review_logs l
		JOIN items i ON i.id = l.item_id
		JOIN collections c ON c.id = i.collection_id
		WHERE c.learner_id = ? AND l.reviewed_at >= ?`), learnerID, since.UTC())
	if err != nil {
		return 0, errors.Wrap(err, "failed to count reviews")
	}
	return n, nil
}
