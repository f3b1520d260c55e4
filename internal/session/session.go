package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	sr "github.com/example/recall/internal/spaced_repetition"
	"github.com/example/recall/pkg/models"
)

// Update is emitted after every grade: the new learning state of one item.
// Writing the same Update twice must be safe.
type Update struct {
	SessionID  uuid.UUID
	ItemID     int64
	Grade      sr.Grade
	Previous   models.LearningState
	Next       models.LearningState
	ReviewedAt time.Time
}

// StateWriter durably stores graded states. It lives outside the session.
type StateWriter interface {
	SaveState(ctx context.Context, u Update) error
}

// StateWriterFunc adapts a function to StateWriter.
type StateWriterFunc func(ctx context.Context, u Update) error

func (f StateWriterFunc) SaveState(ctx context.Context, u Update) error { return f(ctx, u) }

// Summary aggregates what happened in a session so far.
type Summary struct {
	Graded     int       `json:"graded"`
	Correct    int       `json:"correct"`
	Lapses     int       `json:"lapses"`
	Remaining  int       `json:"remaining"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// Result describes a grade that was applied.
type Result struct {
	Update Update
	State  State // state after advancing
}

// Config holds the collaborators of a Session.
type Config struct {
	ID           uuid.UUID
	LearnerID    int64
	CollectionID int64
	Scheduler    *sr.SM2
	Writer       StateWriter
	Logger       *slog.Logger
}

// Session drives one learner through a queue of due items:
// Idle → Presenting → Revealed → Advancing → Presenting | Complete.
// It is safe to call from several goroutines; overlapping grades get ErrBusy.
type Session struct {
	id           uuid.UUID
	learnerID    int64
	collectionID int64
	scheduler    *sr.SM2
	writer       StateWriter
	log          *slog.Logger

	mu      sync.Mutex
	state   State
	queue   []models.ReviewItem
	pos     int
	pending []Update
	abandon bool // requested while advancing
	summary Summary
}

// New creates an Idle session.
func New(cfg Config) *Session {
	id := cfg.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	scheduler := cfg.Scheduler
	if scheduler == nil {
		scheduler = sr.NewSM2(nil)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		id:           id,
		learnerID:    cfg.LearnerID,
		collectionID: cfg.CollectionID,
		scheduler:    scheduler,
		writer:       cfg.Writer,
		log: log.With(
			slog.String("session_id", id.String()),
			slog.Int64("learner_id", cfg.LearnerID),
			slog.Int64("collection_id", cfg.CollectionID),
		),
		state: Idle,
	}
}

func (s *Session) ID() uuid.UUID       { return s.id }
func (s *Session) LearnerID() int64    { return s.learnerID }
func (s *Session) CollectionID() int64 { return s.collectionID }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start loads a queue produced by the due selector. An empty queue completes immediately.
func (s *Session) Start(queue []models.ReviewItem) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Idle {
		return s.state, invalidTransition("start", s.state)
	}

	s.queue = make([]models.ReviewItem, len(queue))
	copy(s.queue, queue)
	s.pos = 0
	s.abandon = false
	s.summary = Summary{
		Remaining: len(queue),
		StartedAt: s.scheduler.Now(),
	}

	if len(s.queue) == 0 {
		s.state = Complete
		s.summary.FinishedAt = s.summary.StartedAt
		s.log.Info("session started with nothing due")
		return s.state, nil
	}

	s.state = Presenting
	s.log.Info("session started", slog.Int("queue", len(s.queue)))
	return s.state, nil
}

// Current returns the item being presented or revealed.
func (s *Session) Current() (models.ReviewItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Presenting && s.state != Revealed {
		return models.ReviewItem{}, false
	}
	return s.queue[s.pos], true
}

// Reveal shows the back of the current item. Revealing twice is a no-op.
func (s *Session) Reveal() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Presenting:
		s.state = Revealed
		return nil
	case Revealed:
		return nil
	case Advancing:
		return ErrBusy
	default:
		return invalidTransition("reveal", s.state)
	}
}

// Grade applies g to the revealed item, emits the new state to the writer and moves on.
// The session advances even if the write fails; the error then wraps ErrPersistence
// and the update stays pending until RetryPending succeeds.
//
// The write runs synchronously while the session is Advancing, so Grade blocks for
// as long as the writer does, and other grades see ErrBusy until it returns.
// The session lock itself is not held during the write.
func (s *Session) Grade(ctx context.Context, g sr.Grade) (Result, error) {
	s.mu.Lock()
	switch s.state {
	case Revealed:
	case Advancing:
		s.mu.Unlock()
		return Result{}, ErrBusy
	default:
		st := s.state
		s.mu.Unlock()
		return Result{}, invalidTransition("grade", st)
	}
	if err := g.Validate(); err != nil {
		s.mu.Unlock()
		return Result{}, err
	}
	s.state = Advancing
	item := s.queue[s.pos]
	s.mu.Unlock()

	prev := item.LearningStateOrDefault()
	next := s.scheduler.Advance(prev, g)
	u := Update{
		SessionID:  s.id,
		ItemID:     item.ID,
		Grade:      g,
		Previous:   prev,
		Next:       next,
		ReviewedAt: *next.LastReviewedAt,
	}

	var writeErr error
	if s.writer != nil {
		writeErr = s.writer.SaveState(ctx, u)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.queue[s.pos].State = &next
	s.pos++
	s.summary.Graded++
	if g.IsLapse() {
		s.summary.Lapses++
	} else {
		s.summary.Correct++
	}
	s.summary.Remaining = len(s.queue) - s.pos

	switch {
	case s.abandon:
		s.reset()
		s.log.Info("session abandoned after grade", slog.Int64("item_id", item.ID))
	case s.pos < len(s.queue):
		s.state = Presenting
	default:
		s.state = Complete
		s.summary.FinishedAt = u.ReviewedAt
		s.log.Info("session complete",
			slog.Int("graded", s.summary.Graded),
			slog.Int("lapses", s.summary.Lapses),
		)
	}

	if writeErr != nil {
		s.pending = append(s.pending, u)
		s.log.Warn("persisting graded state failed",
			slog.Int64("item_id", item.ID),
			slog.String("error", writeErr.Error()),
		)
		return Result{Update: u, State: s.state}, &PersistenceError{Update: u, Err: writeErr}
	}

	return Result{Update: u, State: s.state}, nil
}

// Abandon discards the remaining queue and returns to Idle. It never fails.
// Arriving mid-grade, it takes effect as soon as that grade has been applied.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Advancing {
		s.abandon = true
		return
	}
	if s.state != Idle {
		s.log.Info("session abandoned", slog.Int("remaining", len(s.queue)-s.pos))
	}
	s.reset()
}

func (s *Session) reset() {
	s.state = Idle
	s.queue = nil
	s.pos = 0
	s.abandon = false
	s.summary.Remaining = 0
}

// Pending returns graded updates whose write failed.
func (s *Session) Pending() []Update {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Update, len(s.pending))
	copy(out, s.pending)
	return out
}

// DrainPending removes and returns the updates whose write failed.
// Callers that discard the session hand them to a successor with AddPending.
func (s *Session) DrainPending() []Update {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.pending
	s.pending = nil
	return out
}

// AddPending queues updates for the next RetryPending.
func (s *Session) AddPending(us ...Update) {
	if len(us) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, us...)
}

// RetryPending writes failed updates again without touching the session position.
// Updates that fail again stay pending.
func (s *Session) RetryPending(ctx context.Context) error {
	if s.writer == nil {
		return nil
	}

	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	var failed []Update
	var errs []error
	for _, u := range pending {
		if err := s.writer.SaveState(ctx, u); err != nil {
			failed = append(failed, u)
			errs = append(errs, &PersistenceError{Update: u, Err: err})
		}
	}

	s.mu.Lock()
	s.pending = append(failed, s.pending...)
	s.mu.Unlock()

	if len(errs) > 0 {
		s.log.Warn("retrying pending writes failed", slog.Int("failed", len(failed)))
	}
	return errors.Join(errs...)
}

// Summary returns a snapshot of the session counters.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

// Remaining returns how many items are left, including the current one.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue) - s.pos
}
