package spaced_repetition

import (
	"sort"
	"time"

	"github.com/example/recall/pkg/models"
)

// Selection is the result of SelectDue.
type Selection struct {
	// Items due at asOf, never-reviewed first, then by ascending next review time
	Due []models.ReviewItem
	// Default states assigned to items that had none; the caller persists them
	Initialized []models.ItemState
}

// SelectDue returns the items due for review at asOf.
// The input slice and the states it points to are left untouched.
// A limit of zero or less means no limit.
func SelectDue(items []models.ReviewItem, asOf time.Time, limit int) Selection {
	var sel Selection

	for _, item := range items {
		if item.State == nil {
			st := models.NewLearningState()
			item.State = &st
			sel.Initialized = append(sel.Initialized, models.ItemState{ItemID: item.ID, State: st})
		} else {
			st := *item.State
			item.State = &st
		}

		if item.State.IsDue(asOf) {
			sel.Due = append(sel.Due, item)
		}
	}

	sort.SliceStable(sel.Due, func(i, j int) bool {
		a, b := sel.Due[i].State.NextReviewAt, sel.Due[j].State.NextReviewAt
		switch {
		case a == nil && b == nil:
			return false
		case a == nil:
			return true
		case b == nil:
			return false
		default:
			return a.Before(*b)
		}
	})

	if limit > 0 && len(sel.Due) > limit {
		sel.Due = sel.Due[:limit]
	}

	return sel
}

// CountDue returns how many items are due at asOf.
func CountDue(items []models.ReviewItem, asOf time.Time) int {
	n := 0
	for _, item := range items {
		if item.State == nil || item.State.IsDue(asOf) {
			n++
		}
	}
	return n
}
