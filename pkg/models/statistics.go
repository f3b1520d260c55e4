package models

import (
	"encoding/json"
	"fmt"
)

// MasteryLevel is a coarse classification of how well a collection is known.
// It is derived from learning states and never stored.
type MasteryLevel int

const (
	MasteryUnstarted MasteryLevel = iota
	MasteryWeak
	MasteryModerate
	MasteryStrong
)

var masteryNames = [...]string{
	MasteryUnstarted: "unstarted",
	MasteryWeak:      "weak",
	MasteryModerate:  "moderate",
	MasteryStrong:    "strong",
}

func (m MasteryLevel) String() string {
	if m >= MasteryUnstarted && m <= MasteryStrong {
		return masteryNames[m]
	}
	return fmt.Sprintf("MasteryLevel(%d)", int(m))
}

// MarshalJSON serializes the level as its name.
func (m MasteryLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// CollectionStats summarizes the learning states of a collection
type CollectionStats struct {
	TotalItems     int          `json:"total_items"`
	DueCount       int          `json:"due_count"`
	ReviewedCount  int          `json:"reviewed_count"`
	MasteredCount  int          `json:"mastered_count"`
	MeanEaseFactor float64      `json:"mean_ease_factor"`
	MasteryLevel   MasteryLevel `json:"mastery_level"`
}
