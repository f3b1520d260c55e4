package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/example/recall/pkg/models"
)

// ItemRepository handles database operations for items and their learning states
type ItemRepository struct {
	db *sqlx.DB
}

// NewItemRepository creates a new repository instance
func NewItemRepository(db *sqlx.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// itemRow is an items row LEFT JOINed with its learning state.
type itemRow struct {
	ID             int64           `db:"id"`
	CollectionID   int64           `db:"collection_id"`
	Front          string          `db:"front"`
	Back           string          `db:"back"`
	Interval       sql.NullInt64   `db:"interval_days"`
	Repetition     sql.NullInt64   `db:"repetition"`
	EaseFactor     sql.NullFloat64 `db:"ease_factor"`
	LastReviewedAt *time.Time      `db:"last_reviewed_at"`
	NextReviewAt   *time.Time      `db:"next_review_at"`
}

func (r itemRow) toModel() models.ReviewItem {
	item := models.ReviewItem{
		ID:           r.ID,
		CollectionID: r.CollectionID,
		Front:        r.Front,
		Back:         r.Back,
	}
	// interval_days is NOT NULL, so a NULL here means no state row
	if r.Interval.Valid {
		item.State = &models.LearningState{
			Interval:       int(r.Interval.Int64),
			Repetition:     int(r.Repetition.Int64),
			EaseFactor:     r.EaseFactor.Float64,
			LastReviewedAt: utcPtr(r.LastReviewedAt),
			NextReviewAt:   utcPtr(r.NextReviewAt),
		}
	}
	return item
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// ListItems returns a learner's items with their states.
// A collectionID of zero lists every collection of the learner.
func (r *ItemRepository) ListItems(ctx context.Context, learnerID, collectionID int64) ([]models.ReviewItem, error) {
	query := `
		SELECT i.id, i.collection_id, i.front, i.back,
		       s.interval_days, s.repetition, s.ease_factor, s.last_reviewed_at, s.next_review_at
		FROM items i
		JOIN collections c ON c.id = i.collection_id
		LEFT JOIN learning_states s ON s.item_id = i.id
		WHERE c.learner_id = ?`
	args := []interface{}{learnerID}
	if collectionID != 0 {
		query += ` AND i.collection_id = ?`
		args = append(args, collectionID)
	}
	query += ` ORDER BY i.id`

	var rows []itemRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "failed to list items")
	}

	items := make([]models.ReviewItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toModel())
	}
	return items, nil
}

// GetByID returns one item with its state
func (r *ItemRepository) GetByID(ctx context.Context, id int64) (*models.ReviewItem, error) {
	query := `
		SELECT i.id, i.collection_id, i.front, i.back,
		       s.interval_days, s.repetition, s.ease_factor, s.last_reviewed_at, s.next_review_at
		FROM items i
		LEFT JOIN learning_states s ON s.item_id = i.id
		WHERE i.id = ?`

	var row itemRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(query), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get item")
	}
	item := row.toModel()
	return &item, nil
}

// Create inserts a new item without a learning state.
// Returns ErrAlreadyExists when the collection already has an item with the same front.
func (r *ItemRepository) Create(ctx context.Context, item *models.ReviewItem) error {
	query := `
		INSERT INTO items (collection_id, front, back)
		VALUES (?, ?, ?)
		ON CONFLICT (collection_id, front) DO NOTHING
		RETURNING id`

	err := r.db.QueryRowxContext(ctx, r.db.Rebind(query), item.CollectionID, item.Front, item.Back).Scan(&item.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrAlreadyExists
	}
	if err != nil {
		return errors.Wrap(err, "failed to create item")
	}
	return nil
}

// InitStates stores default states for items that have none. Existing states are left alone.
func (r *ItemRepository) InitStates(ctx context.Context, states []models.ItemState) error {
	if len(states) == 0 {
		return nil
	}

	query := r.db.Rebind(`
		INSERT INTO learning_states (item_id, interval_days, repetition, ease_factor, last_reviewed_at, next_review_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (item_id) DO NOTHING`)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	for _, s := range states {
		st := s.State
		if _, err := tx.ExecContext(ctx, query,
			s.ItemID, st.Interval, st.Repetition, st.EaseFactor,
			nullTime(st.LastReviewedAt), nullTime(st.NextReviewAt),
		); err != nil {
			return errors.Wrapf(err, "failed to init state for item %d", s.ItemID)
		}
	}

	return errors.Wrap(tx.Commit(), "failed to commit state init")
}

// SaveReview stores a graded state together with its review log in one transaction.
// Saving the same review twice leaves a single log row.
func (r *ItemRepository) SaveReview(ctx context.Context, st models.LearningState, log models.ReviewLog) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if err := saveState(ctx, tx, tx.Rebind, log.ItemID, st); err != nil {
		return err
	}

	query := tx.Rebind(`
		INSERT INTO review_logs (item_id, session_id, grade, interval_days, repetition, ease_factor, reviewed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id, item_id, reviewed_at) DO NOTHING`)
	if _, err := tx.ExecContext(ctx, query,
		log.ItemID, log.SessionID, log.Grade, log.Interval, log.Repetition, log.EaseFactor, log.ReviewedAt.UTC(),
	); err != nil {
		return errors.Wrap(err, "failed to insert review log")
	}

	return errors.Wrap(tx.Commit(), "failed to commit review")
}

// saveState creates or replaces the learning state of an item.
func saveState(ctx context.Context, ex sqlx.ExecerContext, rebind func(string) string, itemID int64, st models.LearningState) error {
	query := rebind(`
		INSERT INTO learning_states (item_id, interval_days, repetition, ease_factor, last_reviewed_at, next_review_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (item_id) DO UPDATE SET
			interval_days = excluded.interval_days,
			repetition = excluded.repetition,
			ease_factor = excluded.ease_factor,
			last_reviewed_at = excluded.last_reviewed_at,
			next_review_at = excluded.next_review_at,
			updated_at = CURRENT_TIMESTAMP`)

	_, err := ex.ExecContext(ctx, query,
		itemID, st.Interval, st.Repetition, st.EaseFactor,
		nullTime(st.LastReviewedAt), nullTime(st.NextReviewAt),
	)
	return errors.Wrapf(err, "failed to save state for item %d", itemID)
}
