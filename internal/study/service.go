package study

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/recall/internal/session"
	sr "github.com/example/recall/internal/spaced_repetition"
	"github.com/example/recall/pkg/models"
)

type itemRepo interface {
	ListItems(ctx context.Context, learnerID, collectionID int64) ([]models.ReviewItem, error)
	InitStates(ctx context.Context, states []models.ItemState) error
	SaveReview(ctx context.Context, st models.LearningState, log models.ReviewLog) error
}

// Service connects review sessions to storage.
type Service struct {
	items           itemRepo
	scheduler       *sr.SM2
	sessions        *session.Registry
	itemsPerSession int
	log             *slog.Logger
}

// NewService creates a study service. itemsPerSession <= 0 means no cap.
func NewService(log *slog.Logger, items itemRepo, scheduler *sr.SM2, itemsPerSession int) *Service {
	if scheduler == nil {
		scheduler = sr.NewSM2(nil)
	}
	return &Service{
		items:           items,
		scheduler:       scheduler,
		sessions:        session.NewRegistry(),
		itemsPerSession: itemsPerSession,
		log:             log.With("service", "study"),
	}
}

// StartSession loads the due queue for a learner's collection and starts reviewing it.
// collectionID 0 reviews all of the learner's collections.
// A finished or idle session for the same collection is replaced; a running one yields ErrSessionActive.
// Updates still pending on the replaced session move to the new one.
func (s *Service) StartSession(ctx context.Context, learnerID, collectionID int64) (*session.Session, error) {
	existing, ok := s.sessions.Get(learnerID, collectionID)
	if ok {
		switch existing.State() {
		case session.Idle, session.Complete:
		default:
			return existing, ErrSessionActive
		}
	}

	items, err := s.items.ListItems(ctx, learnerID, collectionID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	sel := sr.SelectDue(items, s.scheduler.Now(), s.itemsPerSession)
	if len(sel.Initialized) > 0 {
		if err := s.items.InitStates(ctx, sel.Initialized); err != nil {
			return nil, fmt.Errorf("init states: %w", err)
		}
		s.log.DebugContext(ctx, "initialized learning states",
			slog.Int64("learner_id", learnerID),
			slog.Int("count", len(sel.Initialized)),
		)
	}

	var carried []session.Update
	if existing != nil {
		carried = existing.DrainPending()
		s.sessions.Remove(learnerID, collectionID, existing.ID())
		if len(carried) > 0 {
			s.log.InfoContext(ctx, "carrying pending writes into new session",
				slog.Int64("learner_id", learnerID),
				slog.Int("pending", len(carried)),
			)
		}
	}

	sess, created, err := s.sessions.GetOrCreate(learnerID, collectionID, func() (*session.Session, error) {
		return session.New(session.Config{
			LearnerID:    learnerID,
			CollectionID: collectionID,
			Scheduler:    s.scheduler,
			Writer:       s.writer(),
			Logger:       s.log,
		}), nil
	})
	if err != nil {
		return nil, err
	}
	sess.AddPending(carried...)
	if !created {
		// Lost a race with another StartSession
		return sess, ErrSessionActive
	}

	if _, err := sess.Start(sel.Due); err != nil {
		return nil, err
	}
	return sess, nil
}

// Current returns the item being reviewed.
func (s *Service) Current(learnerID, collectionID int64) (models.ReviewItem, error) {
	sess, err := s.session(learnerID, collectionID)
	if err != nil {
		return models.ReviewItem{}, err
	}
	item, ok := sess.Current()
	if !ok {
		return models.ReviewItem{}, fmt.Errorf("%w: session is %s", session.ErrInvalidTransition, sess.State())
	}
	return item, nil
}

// Reveal shows the answer of the current item.
func (s *Service) Reveal(learnerID, collectionID int64) error {
	sess, err := s.session(learnerID, collectionID)
	if err != nil {
		return err
	}
	return sess.Reveal()
}

// Grade grades the revealed item. A failed write still advances the session;
// the returned error then matches session.ErrPersistence.
func (s *Service) Grade(ctx context.Context, learnerID, collectionID int64, g sr.Grade) (session.Result, error) {
	sess, err := s.session(learnerID, collectionID)
	if err != nil {
		return session.Result{}, err
	}
	return sess.Grade(ctx, g)
}

// Abandon stops the session and writes its pending updates.
// The session is forgotten only once nothing is pending; otherwise it stays
// registered, Idle, and the returned error matches session.ErrPersistence.
func (s *Service) Abandon(ctx context.Context, learnerID, collectionID int64) error {
	sess, err := s.session(learnerID, collectionID)
	if err != nil {
		return err
	}
	sess.Abandon()

	if err := sess.RetryPending(ctx); err != nil {
		s.log.WarnContext(ctx, "abandoned session keeps pending writes",
			slog.Int64("learner_id", learnerID),
			slog.Int("pending", len(sess.Pending())),
		)
		return err
	}
	s.sessions.Remove(learnerID, collectionID, sess.ID())
	return nil
}

// RetryPending re-sends graded states whose write failed.
func (s *Service) RetryPending(ctx context.Context, learnerID, collectionID int64) error {
	sess, err := s.session(learnerID, collectionID)
	if err != nil {
		return err
	}
	return sess.RetryPending(ctx)
}

// Preview returns the state each grade would give the current item.
func (s *Service) Preview(learnerID, collectionID int64) (map[sr.Grade]models.LearningState, error) {
	item, err := s.Current(learnerID, collectionID)
	if err != nil {
		return nil, err
	}
	return s.scheduler.Preview(item.LearningStateOrDefault()), nil
}

// Summary returns the counters of the learner's session.
func (s *Service) Summary(learnerID, collectionID int64) (session.Summary, error) {
	sess, err := s.session(learnerID, collectionID)
	if err != nil {
		return session.Summary{}, err
	}
	return sess.Summary(), nil
}

// Stats summarizes a collection, or all of a learner's items when collectionID is 0.
func (s *Service) Stats(ctx context.Context, learnerID, collectionID int64) (models.CollectionStats, error) {
	items, err := s.items.ListItems(ctx, learnerID, collectionID)
	if err != nil {
		return models.CollectionStats{}, fmt.Errorf("list items: %w", err)
	}
	return sr.Summarize(items, s.scheduler.Now()), nil
}

// DueCount counts the items due now. Items without state count as due.
func (s *Service) DueCount(ctx context.Context, learnerID, collectionID int64) (int, error) {
	items, err := s.items.ListItems(ctx, learnerID, collectionID)
	if err != nil {
		return 0, fmt.Errorf("list items: %w", err)
	}
	return sr.CountDue(items, s.scheduler.Now()), nil
}

func (s *Service) session(learnerID, collectionID int64) (*session.Session, error) {
	sess, ok := s.sessions.Get(learnerID, collectionID)
	if !ok {
		return nil, ErrNoSession
	}
	return sess, nil
}

// writer persists each graded state with its review log.
func (s *Service) writer() session.StateWriter {
	return session.StateWriterFunc(func(ctx context.Context, u session.Update) error {
		return s.items.SaveReview(ctx, u.Next, reviewLog(u))
	})
}

func reviewLog(u session.Update) models.ReviewLog {
	return models.ReviewLog{
		ItemID:     u.ItemID,
		SessionID:  u.SessionID.String(),
		Grade:      int(u.Grade),
		Interval:   u.Next.Interval,
		Repetition: u.Next.Repetition,
		EaseFactor: u.Next.EaseFactor,
		ReviewedAt: u.ReviewedAt,
	}
}
