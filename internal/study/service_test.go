package study

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/recall/internal/session"
	sr "github.com/example/recall/internal/spaced_repetition"
	"github.com/example/recall/pkg/models"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

type itemRepoMock struct {
	ListItemsFunc  func(ctx context.Context, learnerID, collectionID int64) ([]models.ReviewItem, error)
	InitStatesFunc func(ctx context.Context, states []models.ItemState) error
	SaveReviewFunc func(ctx context.Context, st models.LearningState, log models.ReviewLog) error
}

func (m *itemRepoMock) ListItems(ctx context.Context, learnerID, collectionID int64) ([]models.ReviewItem, error) {
	return m.ListItemsFunc(ctx, learnerID, collectionID)
}

func (m *itemRepoMock) InitStates(ctx context.Context, states []models.ItemState) error {
	if m.InitStatesFunc == nil {
		return nil
	}
	return m.InitStatesFunc(ctx, states)
}

func (m *itemRepoMock) SaveReview(ctx context.Context, st models.LearningState, log models.ReviewLog) error {
	if m.SaveReviewFunc == nil {
		return nil
	}
	return m.SaveReviewFunc(ctx, st, log)
}

func ptr[T any](v T) *T { return &v }

func testItems() []models.ReviewItem {
	return []models.ReviewItem{
		{ID: 1, Front: "uno", Back: "one"},
		{ID: 2, Front: "dos", Back: "two", State: &models.LearningState{
			Interval: 6, Repetition: 2, EaseFactor: 2.6,
			LastReviewedAt: ptr(t0.AddDate(0, 0, -6)), NextReviewAt: ptr(t0.Add(-time.Hour)),
		}},
		{ID: 3, Front: "tres", Back: "three", State: &models.LearningState{
			Interval: 6, Repetition: 2, EaseFactor: 2.6,
			LastReviewedAt: ptr(t0.AddDate(0, 0, -1)), NextReviewAt: ptr(t0.AddDate(0, 0, 5)),
		}},
	}
}

func newTestService(repo itemRepo, perSession int) *Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(log, repo, sr.NewSM2(sr.FixedClock(t0)), perSession)
}

func TestService_StartSession_InitializesAndQueuesDue(t *testing.T) {
	var initialized []models.ItemState
	repo := &itemRepoMock{
		ListItemsFunc: func(_ context.Context, learnerID, collectionID int64) ([]models.ReviewItem, error) {
			assert.Equal(t, int64(7), learnerID)
			assert.Equal(t, int64(3), collectionID)
			return testItems(), nil
		},
		InitStatesFunc: func(_ context.Context, states []models.ItemState) error {
			initialized = states
			return nil
		},
	}
	svc := newTestService(repo, 0)

	sess, err := svc.StartSession(context.Background(), 7, 3)
	require.NoError(t, err)
	assert.Equal(t, session.Presenting, sess.State())
	assert.Equal(t, 2, sess.Remaining())

	require.Len(t, initialized, 1)
	assert.Equal(t, int64(1), initialized[0].ItemID)
	assert.Equal(t, models.NewLearningState(), initialized[0].State)

	item, err := svc.Current(7, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), item.ID, "never-reviewed items come first")
}

func TestService_StartSession_CapsQueue(t *testing.T) {
	repo := &itemRepoMock{
		ListItemsFunc: func(context.Context, int64, int64) ([]models.ReviewItem, error) { return testItems(), nil },
	}
	svc := newTestService(repo, 1)

	sess, err := svc.StartSession(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, sess.Remaining())
}

func TestService_StartSession_RejectsSecondActiveSession(t *testing.T) {
	repo := &itemRepoMock{
		ListItemsFunc: func(context.Context, int64, int64) ([]models.ReviewItem, error) { return testItems(), nil },
	}
	svc := newTestService(repo, 0)

	first, err := svc.StartSession(context.Background(), 1, 1)
	require.NoError(t, err)

	again, err := svc.StartSession(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrSessionActive)
	assert.Equal(t, first.ID(), again.ID())

	// A different collection is independent
	_, err = svc.StartSession(context.Background(), 1, 2)
	assert.NoError(t, err)
}

func TestService_StartSession_ReplacesCompletedSession(t *testing.T) {
	repo := &itemRepoMock{
		ListItemsFunc: func(context.Context, int64, int64) ([]models.ReviewItem, error) { return nil, nil },
	}
	svc := newTestService(repo, 0)

	first, err := svc.StartSession(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, session.Complete, first.State())

	second, err := svc.StartSession(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), second.ID())
}

func TestService_StartSession_ListError(t *testing.T) {
	boom := errors.New("db down")
	repo := &itemRepoMock{
		ListItemsFunc: func(context.Context, int64, int64) ([]models.ReviewItem, error) { return nil, boom },
	}
	svc := newTestService(repo, 0)

	_, err := svc.StartSession(context.Background(), 1, 1)
	assert.ErrorIs(t, err, boom)

	_, err = svc.Current(1, 1)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestService_Grade_PersistsStateAndLog(t *testing.T) {
	var saved []models.ReviewLog
	var states []models.LearningState
	repo := &itemRepoMock{
		ListItemsFunc: func(context.Context, int64, int64) ([]models.ReviewItem, error) { return testItems()[:1], nil },
		SaveReviewFunc: func(_ context.Context, st models.LearningState, log models.ReviewLog) error {
			states = append(states, st)
			saved = append(saved, log)
			return nil
		},
	}
	svc := newTestService(repo, 0)
	ctx := context.Background()

	sess, err := svc.StartSession(ctx, 1, 1)
	require.NoError(t, err)
	require.NoError(t, svc.Reveal(1, 1))

	res, err := svc.Grade(ctx, 1, 1, sr.GradeCorrectHesitation)
	require.NoError(t, err)
	assert.Equal(t, session.Complete, res.State)

	require.Len(t, saved, 1)
	assert.Equal(t, int64(1), saved[0].ItemID)
	assert.Equal(t, sess.ID().String(), saved[0].SessionID)
	assert.Equal(t, 4, saved[0].Grade)
	assert.Equal(t, 1, saved[0].Interval)
	assert.Equal(t, t0, saved[0].ReviewedAt)
	assert.Equal(t, 1, states[0].Repetition)

	sum, err := svc.Summary(1, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Graded)
}

func TestService_Grade_PersistenceFailureThenRetry(t *testing.T) {
	fail := true
	calls := 0
	repo := &itemRepoMock{
		ListItemsFunc: func(context.Context, int64, int64) ([]models.ReviewItem, error) { return testItems(), nil },
		SaveReviewFunc: func(context.Context, models.LearningState, models.ReviewLog) error {
			calls++
			if fail {
				return errors.New("disk full")
			}
			return nil
		},
	}
	svc := newTestService(repo, 0)
	ctx := context.Background()

	sess, err := svc.StartSession(ctx, 1, 1)
	require.NoError(t, err)
	require.NoError(t, svc.Reveal(1, 1))

	res, err := svc.Grade(ctx, 1, 1, sr.GradeBlackout)
	assert.ErrorIs(t, err, session.ErrPersistence)
	assert.Equal(t, session.Presenting, res.State, "session advances despite the failed write")
	assert.Len(t, sess.Pending(), 1)

	fail = false
	require.NoError(t, svc.RetryPending(ctx, 1, 1))
	assert.Empty(t, sess.Pending())
	assert.Equal(t, 2, calls)
}

func TestService_Abandon(t *testing.T) {
	repo := &itemRepoMock{
		ListItemsFunc: func(context.Context, int64, int64) ([]models.ReviewItem, error) { return testItems(), nil },
	}
	svc := newTestService(repo, 0)

	sess, err := svc.StartSession(context.Background(), 1, 1)
	require.NoError(t, err)
	require.NoError(t, svc.Abandon(context.Background(), 1, 1))
	assert.Equal(t, session.Idle, sess.State())

	assert.ErrorIs(t, svc.Reveal(1, 1), ErrNoSession)
	assert.ErrorIs(t, svc.Abandon(context.Background(), 1, 1), ErrNoSession)
}

// flakyRepo fails every SaveReview while failing is set and counts successful saves.
type flakyRepo struct {
	itemRepoMock
	failing bool
	saved   []models.ReviewLog
}

func newFlakyRepo() *flakyRepo {
	r := &flakyRepo{failing: true}
	r.ListItemsFunc = func(context.Context, int64, int64) ([]models.ReviewItem, error) { return testItems(), nil }
	r.SaveReviewFunc = func(_ context.Context, _ models.LearningState, log models.ReviewLog) error {
		if r.failing {
			return errors.New("disk full")
		}
		r.saved = append(r.saved, log)
		return nil
	}
	return r
}

func gradeFirstWithFailedWrite(t *testing.T, svc *Service) *session.Session {
	t.Helper()
	ctx := context.Background()
	sess, err := svc.StartSession(ctx, 1, 1)
	require.NoError(t, err)
	require.NoError(t, svc.Reveal(1, 1))
	_, err = svc.Grade(ctx, 1, 1, sr.GradeCorrectHesitation)
	require.ErrorIs(t, err, session.ErrPersistence)
	require.Len(t, sess.Pending(), 1)
	return sess
}

func TestService_StartSession_CarriesPendingWrites(t *testing.T) {
	repo := newFlakyRepo()
	svc := newTestService(repo, 0)
	ctx := context.Background()

	first := gradeFirstWithFailedWrite(t, svc)
	first.Abandon()

	repo.failing = false
	second, err := svc.StartSession(ctx, 1, 1)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), second.ID())
	assert.Empty(t, first.Pending())
	require.Len(t, second.Pending(), 1)

	require.NoError(t, svc.RetryPending(ctx, 1, 1))
	require.Len(t, repo.saved, 1)
	assert.Equal(t, first.ID().String(), repo.saved[0].SessionID)
	assert.Equal(t, int64(1), repo.saved[0].ItemID)
}

func TestService_Abandon_FlushesPendingWrites(t *testing.T) {
	repo := newFlakyRepo()
	svc := newTestService(repo, 0)
	ctx := context.Background()

	gradeFirstWithFailedWrite(t, svc)

	repo.failing = false
	require.NoError(t, svc.Abandon(ctx, 1, 1))
	require.Len(t, repo.saved, 1)
	assert.ErrorIs(t, svc.RetryPending(ctx, 1, 1), ErrNoSession)
}

func TestService_Abandon_KeepsSessionWhileWritesFail(t *testing.T) {
	repo := newFlakyRepo()
	svc := newTestService(repo, 0)
	ctx := context.Background()

	sess := gradeFirstWithFailedWrite(t, svc)

	err := svc.Abandon(ctx, 1, 1)
	assert.ErrorIs(t, err, session.ErrPersistence)
	assert.Equal(t, session.Idle, sess.State())
	require.Len(t, sess.Pending(), 1)

	repo.failing = false
	require.NoError(t, svc.RetryPending(ctx, 1, 1))
	require.Len(t, repo.saved, 1)

	require.NoError(t, svc.Abandon(ctx, 1, 1))
	assert.ErrorIs(t, svc.RetryPending(ctx, 1, 1), ErrNoSession)
}

func TestService_Preview(t *testing.T) {
	repo := &itemRepoMock{
		ListItemsFunc: func(context.Context, int64, int64) ([]models.ReviewItem, error) { return testItems()[1:2], nil },
	}
	svc := newTestService(repo, 0)

	_, err := svc.Preview(1, 1)
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = svc.StartSession(context.Background(), 1, 1)
	require.NoError(t, err)

	preview, err := svc.Preview(1, 1)
	require.NoError(t, err)
	require.Len(t, preview, len(sr.Grades))
	assert.Equal(t, 1, preview[sr.GradeBlackout].Interval)
	assert.Equal(t, 16, preview[sr.GradeCorrectHesitation].Interval) // round(6 * 2.6)
	assert.Equal(t, 3, preview[sr.GradePerfect].Repetition)
}

func TestService_StatsAndDueCount(t *testing.T) {
	repo := &itemRepoMock{
		ListItemsFunc: func(context.Context, int64, int64) ([]models.ReviewItem, error) { return testItems(), nil },
	}
	svc := newTestService(repo, 0)
	ctx := context.Background()

	n, err := svc.DueCount(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	stats, err := svc.Stats(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalItems)
	assert.Equal(t, 2, stats.DueCount)
	assert.Equal(t, 2, stats.ReviewedCount)
	assert.InDelta(t, 2.6, stats.MeanEaseFactor, 1e-9)
	assert.Equal(t, models.MasteryStrong, stats.MasteryLevel)
}
