package spaced_repetition

import (
	"time"

	"github.com/example/recall/pkg/models"
)

// Mastery thresholds on the mean ease factor of reviewed items.
const (
	StrongThreshold   = 2.2
	ModerateThreshold = 1.8
)

// Classify reduces a collection's items to a mastery level.
func Classify(items []models.ReviewItem) models.MasteryLevel {
	mean, reviewed := meanEaseFactor(items)
	return classify(mean, reviewed)
}

// Summarize computes the stats reported for a collection at asOf.
func Summarize(items []models.ReviewItem, asOf time.Time) models.CollectionStats {
	mean, reviewed := meanEaseFactor(items)

	stats := models.CollectionStats{
		TotalItems:     len(items),
		DueCount:       CountDue(items, asOf),
		ReviewedCount:  reviewed,
		MeanEaseFactor: mean,
		MasteryLevel:   classify(mean, reviewed),
	}
	for _, item := range items {
		if item.State != nil && IsMastered(*item.State) {
			stats.MasteredCount++
		}
	}
	return stats
}

// meanEaseFactor averages over reviewed items only, falling back to the default
// ease factor when nothing has been reviewed yet.
func meanEaseFactor(items []models.ReviewItem) (float64, int) {
	var sum float64
	var reviewed int
	for _, item := range items {
		if item.State == nil || !item.State.Reviewed() {
			continue
		}
		sum += item.State.EaseFactor
		reviewed++
	}
	if reviewed == 0 {
		return models.DefaultEaseFactor, 0
	}
	return sum / float64(reviewed), reviewed
}

func classify(mean float64, reviewed int) models.MasteryLevel {
	// unstarted wins over the numeric thresholds
	if reviewed == 0 {
		return models.MasteryUnstarted
	}
	switch {
	case mean >= StrongThreshold:
		return models.MasteryStrong
	case mean >= ModerateThreshold:
		return models.MasteryModerate
	default:
		return models.MasteryWeak
	}
}
