package session

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is to check them.
var (
	// ErrInvalidTransition is returned when an operation is called out of sequence.
	ErrInvalidTransition = errors.New("session: invalid transition")
	// ErrBusy is returned when a grade arrives while another one is being applied.
	ErrBusy = errors.New("session: busy")
	// ErrPersistence marks a failed write of a graded state. The session has already advanced.
	ErrPersistence = errors.New("session: persistence failure")
)

// PersistenceError carries the update whose write failed so the caller can retry it.
type PersistenceError struct {
	Update Update
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("session: persist item %d: %v", e.Update.ItemID, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

func invalidTransition(op string, from State) error {
	return fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, op, from)
}
