package models

import "time"

const (
	// DefaultEaseFactor is the ease factor every item starts with.
	DefaultEaseFactor = 2.5
	// MinEaseFactor is the floor the ease factor is never allowed to drop below.
	MinEaseFactor = 1.3
)

// LearningState tracks how well a learner knows a single item (SM-2 parameters)
type LearningState struct {
	Interval       int        `json:"interval" db:"interval_days"` // Days until next review
	Repetition     int        `json:"repetition" db:"repetition"`   // Consecutive successful recalls since last lapse
	EaseFactor     float64    `json:"ease_factor" db:"ease_factor"` // SM-2 EF parameter, >= MinEaseFactor
	LastReviewedAt *time.Time `json:"last_reviewed_at" db:"last_reviewed_at"`
	NextReviewAt   *time.Time `json:"next_review_at" db:"next_review_at"` // nil means due now
}

// NewLearningState returns the state an item gets when it first enters the learning subsystem.
func NewLearningState() LearningState {
	return LearningState{
		Interval:   0,
		Repetition: 0,
		EaseFactor: DefaultEaseFactor,
	}
}

// Reviewed reports whether the item has been graded at least once.
func (s LearningState) Reviewed() bool {
	return s.LastReviewedAt != nil
}

// IsDue reports whether the item should be reviewed at asOf.
func (s LearningState) IsDue(asOf time.Time) bool {
	return s.NextReviewAt == nil || !s.NextReviewAt.After(asOf)
}
