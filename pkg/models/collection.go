package models

import "time"

// Collection is a named grouping of a learner's items
type Collection struct {
	ID        int64     `json:"id" db:"id"`
	LearnerID int64     `json:"learner_id" db:"learner_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
