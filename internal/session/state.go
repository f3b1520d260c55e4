package session

import "fmt"

// State is the position of a review session in its present → reveal → grade loop.
type State int

const (
	Idle       State = iota // No active queue
	Presenting              // Front of the current item shown
	Revealed                // Back shown, grading enabled
	Advancing               // Applying a grade, transient
	Complete                // Queue exhausted
)

var stateNames = [...]string{
	Idle:       "idle",
	Presenting: "presenting",
	Revealed:   "revealed",
	Advancing:  "advancing",
	Complete:   "complete",
}

func (s State) String() string {
	if s >= Idle && s <= Complete {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}
