package spaced_repetition

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidGrade is returned when a grade falls outside 0..5.
var ErrInvalidGrade = errors.New("spaced_repetition: invalid grade")

// Grade represents the quality of a recall in SM-2
type Grade int

const (
	// Complete blackout, unable to recall
	GradeBlackout Grade = 0
	// Incorrect response but remembered upon seeing the correct answer
	GradeIncorrect Grade = 1
	// Incorrect response but the correct answer felt familiar
	GradeIncorrectFamiliar Grade = 2
	// Correct response but required significant effort
	GradeCorrectDifficult Grade = 3
	// Correct response after some hesitation
	GradeCorrectHesitation Grade = 4
	// Perfect response with no hesitation
	GradePerfect Grade = 5
)

// PassThreshold is the lowest grade that counts as a successful recall.
const PassThreshold = GradeCorrectDifficult

// Grades lists every valid grade from worst to best.
var Grades = []Grade{
	GradeBlackout,
	GradeIncorrect,
	GradeIncorrectFamiliar,
	GradeCorrectDifficult,
	GradeCorrectHesitation,
	GradePerfect,
}

var gradeNames = [...]string{
	GradeBlackout:          "blackout",
	GradeIncorrect:         "incorrect",
	GradeIncorrectFamiliar: "incorrect-familiar",
	GradeCorrectDifficult:  "correct-difficult",
	GradeCorrectHesitation: "correct-hesitation",
	GradePerfect:           "perfect",
}

// IsValid reports whether g is within 0..5.
func (g Grade) IsValid() bool {
	return g >= GradeBlackout && g <= GradePerfect
}

// Validate returns ErrInvalidGrade for out of range values.
func (g Grade) Validate() error {
	if !g.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidGrade, int(g))
	}
	return nil
}

// IsLapse reports whether g resets the spacing progression.
func (g Grade) IsLapse() bool {
	return g < PassThreshold
}

func (g Grade) String() string {
	if g.IsValid() {
		return gradeNames[g]
	}
	return fmt.Sprintf("Grade(%d)", int(g))
}

// ParseGrade parses a decimal grade such as "4".
func ParseGrade(s string) (Grade, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidGrade, s)
	}
	g := Grade(n)
	if err := g.Validate(); err != nil {
		return 0, err
	}
	return g, nil
}
