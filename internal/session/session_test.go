package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sr "github.com/example/recall/internal/spaced_repetition"
	"github.com/example/recall/pkg/models"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

type recordingWriter struct {
	mu      sync.Mutex
	updates []Update
	fail    error
}

func (w *recordingWriter) SaveState(_ context.Context, u Update) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.updates = append(w.updates, u)
	return w.fail
}

func (w *recordingWriter) setFail(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fail = err
}

func newTestSession(w StateWriter) *Session {
	return New(Config{
		LearnerID:    1,
		CollectionID: 2,
		Scheduler:    sr.NewSM2(sr.FixedClock(t0)),
		Writer:       w,
	})
}

func queueOf(ids ...int64) []models.ReviewItem {
	items := make([]models.ReviewItem, 0, len(ids))
	for _, id := range ids {
		st := models.NewLearningState()
		items = append(items, models.ReviewItem{ID: id, Front: "front", Back: "back", State: &st})
	}
	return items
}

func TestStart_EmptyQueueCompletes(t *testing.T) {
	s := newTestSession(nil)

	st, err := s.Start(nil)

	require.NoError(t, err)
	assert.Equal(t, Complete, st)
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestStart_OnlyFromIdle(t *testing.T) {
	s := newTestSession(nil)
	_, err := s.Start(queueOf(1))
	require.NoError(t, err)

	_, err = s.Start(queueOf(2))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestGrade_BeforeRevealFails(t *testing.T) {
	w := &recordingWriter{}
	s := newTestSession(w)
	_, err := s.Start(queueOf(1, 2))
	require.NoError(t, err)

	_, err = s.Grade(context.Background(), sr.GradePerfect)

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, Presenting, s.State())
	assert.Empty(t, w.updates)
}

func TestGrade_TwiceWithoutRevealFails(t *testing.T) {
	s := newTestSession(&recordingWriter{})
	_, err := s.Start(queueOf(1, 2))
	require.NoError(t, err)
	require.NoError(t, s.Reveal())

	_, err = s.Grade(context.Background(), sr.GradeCorrectHesitation)
	require.NoError(t, err)

	_, err = s.Grade(context.Background(), sr.GradeCorrectHesitation)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestGrade_InIdleAndCompleteFails(t *testing.T) {
	s := newTestSession(nil)
	_, err := s.Grade(context.Background(), sr.GradePerfect)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = s.Start(nil)
	require.NoError(t, err)
	_, err = s.Grade(context.Background(), sr.GradePerfect)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestGrade_InvalidGradeKeepsRevealed(t *testing.T) {
	s := newTestSession(&recordingWriter{})
	_, err := s.Start(queueOf(1))
	require.NoError(t, err)
	require.NoError(t, s.Reveal())

	_, err = s.Grade(context.Background(), sr.Grade(7))

	assert.ErrorIs(t, err, sr.ErrInvalidGrade)
	assert.Equal(t, Revealed, s.State())
}

func TestReveal(t *testing.T) {
	s := newTestSession(nil)
	assert.ErrorIs(t, s.Reveal(), ErrInvalidTransition)

	_, err := s.Start(queueOf(1))
	require.NoError(t, err)

	require.NoError(t, s.Reveal())
	require.NoError(t, s.Reveal())
	assert.Equal(t, Revealed, s.State())
}

func TestWalkThroughQueue(t *testing.T) {
	w := &recordingWriter{}
	s := newTestSession(w)
	_, err := s.Start(queueOf(10, 20, 30))
	require.NoError(t, err)

	grades := []sr.Grade{sr.GradePerfect, sr.GradeIncorrect, sr.GradeCorrectDifficult}
	var states []State
	for _, g := range grades {
		item, ok := s.Current()
		require.True(t, ok)
		require.NoError(t, s.Reveal())

		res, err := s.Grade(context.Background(), g)
		require.NoError(t, err)
		assert.Equal(t, item.ID, res.Update.ItemID)
		states = append(states, res.State)
	}

	assert.Equal(t, []State{Presenting, Presenting, Complete}, states)
	require.Len(t, w.updates, 3)
	assert.Equal(t, int64(20), w.updates[1].ItemID)
	assert.Equal(t, 0, w.updates[1].Next.Repetition)
	assert.Equal(t, 1, w.updates[0].Next.Repetition)
	assert.Equal(t, s.ID(), w.updates[0].SessionID)
	assert.True(t, w.updates[0].ReviewedAt.Equal(t0))

	sum := s.Summary()
	assert.Equal(t, 3, sum.Graded)
	assert.Equal(t, 2, sum.Correct)
	assert.Equal(t, 1, sum.Lapses)
	assert.Equal(t, 0, sum.Remaining)
	assert.True(t, sum.FinishedAt.Equal(t0))
}

func TestGrade_UninitializedItemUsesDefaultState(t *testing.T) {
	w := &recordingWriter{}
	s := newTestSession(w)
	_, err := s.Start([]models.ReviewItem{{ID: 5}})
	require.NoError(t, err)
	require.NoError(t, s.Reveal())

	res, err := s.Grade(context.Background(), sr.GradeCorrectHesitation)

	require.NoError(t, err)
	assert.Equal(t, models.NewLearningState(), res.Update.Previous)
	assert.Equal(t, 1, res.Update.Next.Interval)
}

func TestGrade_PersistenceFailureStillAdvances(t *testing.T) {
	w := &recordingWriter{fail: errors.New("disk full")}
	s := newTestSession(w)
	_, err := s.Start(queueOf(1, 2))
	require.NoError(t, err)
	require.NoError(t, s.Reveal())

	res, err := s.Grade(context.Background(), sr.GradePerfect)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, int64(1), perr.Update.ItemID)
	assert.Equal(t, Presenting, res.State)
	assert.Equal(t, Presenting, s.State())
	item, _ := s.Current()
	assert.Equal(t, int64(2), item.ID)
	require.Len(t, s.Pending(), 1)

	// a failing retry keeps the update pending
	assert.ErrorIs(t, s.RetryPending(context.Background()), ErrPersistence)
	require.Len(t, s.Pending(), 1)

	w.setFail(nil)
	require.NoError(t, s.RetryPending(context.Background()))
	assert.Empty(t, s.Pending())
	require.Len(t, w.updates, 3)
	assert.Equal(t, w.updates[0], w.updates[2])

	// position untouched by retries
	item, _ = s.Current()
	assert.Equal(t, int64(2), item.ID)
}

func TestDrainPending_MovesUpdatesToSuccessor(t *testing.T) {
	w := &recordingWriter{fail: errors.New("disk full")}
	old := newTestSession(w)
	_, err := old.Start(queueOf(1))
	require.NoError(t, err)
	require.NoError(t, old.Reveal())
	_, err = old.Grade(context.Background(), sr.GradeCorrectHesitation)
	require.ErrorIs(t, err, ErrPersistence)

	carried := old.DrainPending()
	require.Len(t, carried, 1)
	assert.Empty(t, old.Pending())

	w.setFail(nil)
	next := newTestSession(w)
	next.AddPending(carried...)
	next.AddPending()
	require.Len(t, next.Pending(), 1)

	require.NoError(t, next.RetryPending(context.Background()))
	assert.Empty(t, next.Pending())
	require.Len(t, w.updates, 2)
	assert.Equal(t, carried[0], w.updates[1])
}

func TestAbandon(t *testing.T) {
	w := &recordingWriter{}
	s := newTestSession(w)
	_, err := s.Start(queueOf(1, 2, 3))
	require.NoError(t, err)
	require.NoError(t, s.Reveal())
	_, err = s.Grade(context.Background(), sr.GradePerfect)
	require.NoError(t, err)

	s.Abandon()

	assert.Equal(t, Idle, s.State())
	assert.Equal(t, 0, s.Remaining())
	_, ok := s.Current()
	assert.False(t, ok)
	assert.Len(t, w.updates, 1)

	// always safe
	s.Abandon()
	assert.Equal(t, Idle, s.State())

	st, err := s.Start(queueOf(4))
	require.NoError(t, err)
	assert.Equal(t, Presenting, st)
}

func TestAbandon_FromComplete(t *testing.T) {
	s := newTestSession(nil)
	_, err := s.Start(nil)
	require.NoError(t, err)

	s.Abandon()
	assert.Equal(t, Idle, s.State())
}

type blockingWriter struct {
	entered chan struct{}
	release chan struct{}
}

func (w *blockingWriter) SaveState(_ context.Context, _ Update) error {
	close(w.entered)
	<-w.release
	return nil
}

func TestGrade_BusyWhileAdvancing(t *testing.T) {
	w := &blockingWriter{entered: make(chan struct{}), release: make(chan struct{})}
	s := newTestSession(w)
	_, err := s.Start(queueOf(1, 2))
	require.NoError(t, err)
	require.NoError(t, s.Reveal())

	done := make(chan error, 1)
	go func() {
		_, err := s.Grade(context.Background(), sr.GradePerfect)
		done <- err
	}()

	<-w.entered
	assert.Equal(t, Advancing, s.State())

	_, err = s.Grade(context.Background(), sr.GradePerfect)
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, s.Reveal(), ErrBusy)

	close(w.release)
	require.NoError(t, <-done)
	assert.Equal(t, Presenting, s.State())
}

func TestAbandon_WhileAdvancingIsDeferred(t *testing.T) {
	w := &blockingWriter{entered: make(chan struct{}), release: make(chan struct{})}
	s := newTestSession(w)
	_, err := s.Start(queueOf(1, 2))
	require.NoError(t, err)
	require.NoError(t, s.Reveal())

	done := make(chan Result, 1)
	go func() {
		res, _ := s.Grade(context.Background(), sr.GradePerfect)
		done <- res
	}()

	<-w.entered
	s.Abandon()
	assert.Equal(t, Advancing, s.State())

	close(w.release)
	res := <-done
	assert.Equal(t, Idle, res.State)
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, 1, s.Summary().Graded)
}
