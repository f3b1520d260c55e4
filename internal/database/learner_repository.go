package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/example/recall/pkg/models"
)

// LearnerRepository handles database operations for learners
type LearnerRepository struct {
	db *sqlx.DB
}

// NewLearnerRepository creates a new repository instance
func NewLearnerRepository(db *sqlx.DB) *LearnerRepository {
	return &LearnerRepository{db: db}
}

// Create inserts a new learner and fills in its ID
func (r *LearnerRepository) Create(ctx context.Context, l *models.Learner) error {
	err := r.db.QueryRowxContext(ctx, r.db.Rebind(`
		INSERT INTO learners (name, telegram_chat_id, notification_enabled, notification_hour, items_per_day)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`),
		l.Name, l.TelegramChatID, l.NotificationEnabled, l.NotificationHour, l.ItemsPerDay,
	).Scan(&l.ID)
	return errors.Wrap(err, "failed to create learner")
}

// GetByID returns a learner by ID
func (r *LearnerRepository) GetByID(ctx context.Context, id int64) (*models.Learner, error) {
	var l models.Learner
	err := r.db.GetContext(ctx, &l, r.db.Rebind(`
		SELECT id, name, telegram_chat_id, notification_enabled, notification_hour, items_per_day, created_at
		FROM learners
		WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get learner")
	}
	return &l, nil
}

// ListForNotification returns learners with notifications enabled at the given hour
func (r *LearnerRepository) ListForNotification(ctx context.Context, hour int) ([]models.Learner, error) {
	var ls []models.Learner
	err := r.db.SelectContext(ctx, &ls, r.db.Rebind(`
		SELECT id, name, telegram_chat_id, notification_enabled, notification_hour, items_per_day, created_at
		FROM learners
		WHERE notification_enabled = ? AND notification_hour = ?
		ORDER BY id`), true, hour)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get learners for notification")
	}
	return ls, nil
}
