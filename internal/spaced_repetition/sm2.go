package spaced_repetition

import (
	"math"
	"time"

	"github.com/example/recall/pkg/models"
)

// SM2 implements the SuperMemo-2 algorithm for spaced repetition.
// Advance never mutates its input and never fails.
type SM2 struct {
	// Source of "now" for last_reviewed_at
	Clock Clock
	// Floor for the ease factor
	MinEaseFactor float64
	// Ceiling for the ease factor, zero disables it
	MaxEaseFactor float64
	// Maximum interval in days, zero disables it
	MaxInterval int
}

// NewSM2 creates an SM2 with the floor-only defaults.
func NewSM2(clock Clock) *SM2 {
	if clock == nil {
		clock = SystemClock{}
	}
	return &SM2{
		Clock:         clock,
		MinEaseFactor: models.MinEaseFactor,
	}
}

// Advance computes the learning state that follows grading state with grade.
// Grades outside 0..5 are clamped; callers validate before reaching here.
func (sm *SM2) Advance(state models.LearningState, grade Grade) models.LearningState {
	grade = clampGrade(grade)
	next := state

	if grade >= PassThreshold {
		next.Repetition = state.Repetition + 1
		next.Interval = sm.nextInterval(next.Repetition, state.Interval, state.EaseFactor)
	} else {
		// Lapse: restart the spacing progression
		next.Repetition = 0
		next.Interval = 1
	}

	next.EaseFactor = sm.nextEaseFactor(state.EaseFactor, grade)

	now := sm.Now()
	nextReview := now.AddDate(0, 0, next.Interval)
	next.LastReviewedAt = &now
	next.NextReviewAt = &nextReview

	return next
}

// Preview returns the state each grade would produce, without committing to any.
func (sm *SM2) Preview(state models.LearningState) map[Grade]models.LearningState {
	out := make(map[Grade]models.LearningState, len(Grades))
	for _, g := range Grades {
		out[g] = sm.Advance(state, g)
	}
	return out
}

// Replay applies grades in order starting from state.
func (sm *SM2) Replay(state models.LearningState, grades []Grade) models.LearningState {
	for _, g := range grades {
		state = sm.Advance(state, g)
	}
	return state
}

// IsMastered determines if an item is considered "mastered":
// at least 5 consecutive successful recalls and an interval of at least 30 days.
func IsMastered(state models.LearningState) bool {
	return state.Repetition >= 5 && state.Interval >= 30
}

// nextInterval uses the interval and ease factor held before this grading.
func (sm *SM2) nextInterval(repetition, prevInterval int, ease float64) int {
	var interval int
	switch repetition {
	case 1:
		interval = 1
	case 2:
		interval = 6
	default:
		interval = int(math.Round(float64(prevInterval) * ease))
	}
	if sm.MaxInterval > 0 && interval > sm.MaxInterval {
		interval = sm.MaxInterval
	}
	return interval
}

func (sm *SM2) nextEaseFactor(ease float64, grade Grade) float64 {
	q := 5.0 - float64(grade)
	ef := ease + (0.1 - q*(0.08+q*0.02))

	floor := sm.MinEaseFactor
	if floor <= 0 {
		floor = models.MinEaseFactor
	}
	if ef < floor {
		ef = floor
	}
	if sm.MaxEaseFactor > 0 && ef > sm.MaxEaseFactor {
		ef = sm.MaxEaseFactor
	}
	return ef
}

// Now reads the scheduler's clock.
func (sm *SM2) Now() time.Time {
	if sm.Clock == nil {
		return SystemClock{}.Now()
	}
	return sm.Clock.Now()
}

func clampGrade(g Grade) Grade {
	if g < GradeBlackout {
		return GradeBlackout
	}
	if g > GradePerfect {
		return GradePerfect
	}
	return g
}
