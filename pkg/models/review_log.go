package models

import "time"

// ReviewLog records a single graded review of an item
type ReviewLog struct {
	ID         int64     `json:"id" db:"id"`
	ItemID     int64     `json:"item_id" db:"item_id"`
	SessionID  string    `json:"session_id" db:"session_id"`
	Grade      int       `json:"grade" db:"grade"` // 0-5 rating of recall
	Interval   int       `json:"interval" db:"interval_days"`
	Repetition int       `json:"repetition" db:"repetition"`
	EaseFactor float64   `json:"ease_factor" db:"ease_factor"`
	ReviewedAt time.Time `json:"reviewed_at" db:"reviewed_at"`
}
