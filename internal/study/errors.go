package study

import "errors"

var (
	// ErrNoSession is returned when the learner has no session for the collection.
	ErrNoSession = errors.New("no review session")
	// ErrSessionActive is returned when a session for the collection is already running.
	ErrSessionActive = errors.New("review session already active")
)
