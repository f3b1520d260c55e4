package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/example/recall/pkg/models"
)

// CollectionRepository handles database operations for collections
type CollectionRepository struct {
	db *sqlx.DB
}

// NewCollectionRepository creates a new repository instance
func NewCollectionRepository(db *sqlx.DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

// GetByID returns a collection by ID
func (r *CollectionRepository) GetByID(ctx context.Context, id int64) (*models.Collection, error) {
	var c models.Collection
	err := r.db.GetContext(ctx, &c, r.db.Rebind(`
		SELECT id, learner_id, name, created_at
		FROM collections
		WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get collection")
	}
	return &c, nil
}

// GetByName returns a learner's collection by name
func (r *CollectionRepository) GetByName(ctx context.Context, learnerID int64, name string) (*models.Collection, error) {
	var c models.Collection
	err := r.db.GetContext(ctx, &c, r.db.Rebind(`
		SELECT id, learner_id, name, created_at
		FROM collections
		WHERE learner_id = ? AND name = ?`), learnerID, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get collection by name")
	}
	return &c, nil
}

// GetOrCreate returns the learner's collection with the given name, creating it if needed.
// The bool reports whether it was created.
func (r *CollectionRepository) GetOrCreate(ctx context.Context, learnerID int64, name string) (*models.Collection, bool, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO collections (learner_id, name)
		VALUES (?, ?)
		ON CONFLICT (learner_id, name) DO NOTHING`), learnerID, name)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to create collection")
	}
	created, err := res.RowsAffected()
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to get rows affected")
	}

	c, err := r.GetByName(ctx, learnerID, name)
	if err != nil {
		return nil, false, err
	}
	return c, created > 0, nil
}

// ListByLearner returns all collections of a learner
func (r *CollectionRepository) ListByLearner(ctx context.Context, learnerID int64) ([]models.Collection, error) {
	var cs []models.Collection
	err := r.db.SelectContext(ctx, &cs, r.db.Rebind(`
		SELECT id, learner_id, name, created_at
		FROM collections
		WHERE learner_id = ?
		ORDER BY name`), learnerID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list collections")
	}
	return cs, nil
}
