// Package tracker keeps the learner's progress record in memory, persists
// every change locally and mirrors it to the account API when signed in.
package tracker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/awwal/internal/auth"
	"github.com/abhisek/awwal/internal/progress"
	"github.com/abhisek/awwal/internal/remote"
)

// Service is the single owner of the in-memory progress record. Every
// mutation swaps in a fresh record, so readers see either the old or the
// new value. Methods never return progress-tracking errors; degraded paths
// are logged and reported through the observer.
type Service struct {
	store  progress.Persistence
	client remote.Client

	clock       func() time.Time
	loc         *time.Location
	logger      *zap.Logger
	syncTimeout time.Duration
	observer    func(SyncResult)
	syncLog     SyncLog

	mu      sync.RWMutex
	current progress.LearnerProgress
	session auth.State
	// epoch increments on every session change; background fetches started
	// under an older epoch are discarded.
	epoch uint64
	// dirty is set while the in-memory record holds changes the last save
	// failed to write.
	dirty bool

	wg       sync.WaitGroup
	inflight atomic.Int32
}

// Option configures a Service.
type Option func(*Service)

// WithConfig applies the sync timeout and location from cfg.
func WithConfig(cfg Config) Option {
	return func(s *Service) {
		if cfg.SyncTimeout > 0 {
			s.syncTimeout = cfg.SyncTimeout
		}
		if cfg.Location != nil {
			s.loc = cfg.Location
		}
	}
}

// WithLogger sets the logger. Nil means no logging.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// WithLocation sets the time zone streak days are computed in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithObserver registers fn to receive every background sync result. fn
// is called from background goroutines.
func WithObserver(fn func(SyncResult)) Option {
	return func(s *Service) { s.observer = fn }
}

// WithSyncLog persists every background sync result.
func WithSyncLog(l SyncLog) Option {
	return func(s *Service) { s.syncLog = l }
}

// New creates an anonymous Service and loads the persisted record. A
// corrupt or unreadable record is logged and replaced by the default.
func New(ctx context.Context, store progress.Persistence, client remote.Client, opts ...Option) *Service {
	cfg := DefaultConfig()
	s := &Service{
		store:       store,
		client:      client,
		clock:       time.Now,
		loc:         cfg.Location,
		logger:      zap.NewNop(),
		syncTimeout: cfg.SyncTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.current = s.load(ctx)
	return s
}

// Progress returns the current record.
func (s *Service) Progress() progress.LearnerProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Session returns the session the service is operating under.
func (s *Service) Session() auth.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// IsCompleted reports whether the lesson is in the current record.
func (s *Service) IsCompleted(levelID, lessonID string) bool {
	return progress.IsLessonCompleted(s.Progress(), levelID, lessonID)
}

// DueReviews lists completions whose review hint has passed.
func (s *Service) DueReviews() []progress.DueReview {
	return progress.DueForReview(s.Progress(), s.now())
}

// Stats summarizes the current record.
func (s *Service) Stats() progress.Stats {
	return progress.Summarize(s.Progress())
}

// Syncing reports whether background work is in flight.
func (s *Service) Syncing() bool {
	return s.inflight.Load() > 0
}

// Wait blocks until all background work started so far has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// CompleteLesson records the lesson locally and returns the new record.
// When signed in, the completion is also sent to the account API in the
// background; a failure there never reverts local state.
func (s *Service) CompleteLesson(ctx context.Context, levelID, lessonID string, score *float64) progress.LearnerProgress {
	s.mu.Lock()
	next := progress.RecordLessonComplete(s.current, levelID, lessonID, score, s.now())
	s.current = next
	s.persistLocked(ctx, next)
	session := s.session
	s.mu.Unlock()

	if session.IsAuthenticated {
		s.pushCompletion(ctx, session.Token, levelID, lessonID)
	}
	return next
}

// Refresh reloads the record from persistence and, when signed in, merges
// in the account's progress in the background. The in-memory record is
// kept when the read fails or when it holds unsaved changes; in the latter
// case the save is retried.
func (s *Service) Refresh(ctx context.Context) {
	s.mu.Lock()
	switch p, err := progress.LoadProgress(ctx, s.store); {
	case err != nil:
		s.logger.Warn("reload progress, keeping current record", zap.Error(err))
	case s.dirty:
		s.persistLocked(ctx, s.current)
	default:
		s.current = p
	}
	session := s.session
	epoch := s.epoch
	s.mu.Unlock()

	if session.IsAuthenticated {
		s.pullAndMerge(ctx, epoch, session.Token)
	}
}

// Push sends an already recorded completion to the account API in the
// background. It does nothing when signed out.
func (s *Service) Push(ctx context.Context, levelID, lessonID string) {
	session := s.Session()
	if !session.IsAuthenticated || !s.IsCompleted(levelID, lessonID) {
		return
	}
	s.pushCompletion(ctx, session.Token, levelID, lessonID)
}

// HandleAuthChange adopts a new session. Signing in (or switching token)
// starts a background fetch-and-merge. Signing out resets the record to
// whatever persistence now holds. It has the shape of auth.Listener.
func (s *Service) HandleAuthChange(ctx context.Context, st auth.State) {
	s.mu.Lock()
	prev := s.session
	if prev == st {
		s.mu.Unlock()
		return
	}
	s.session = st
	s.epoch++
	epoch := s.epoch
	s.mu.Unlock()

	if !st.IsAuthenticated {
		p := s.load(ctx)
		s.mu.Lock()
		if s.epoch == epoch {
			s.current = p
			s.dirty = false
		}
		s.mu.Unlock()
		s.logger.Info("signed out, progress reset")
		return
	}

	s.logger.Info("signed in, reconciling progress")
	s.pullAndMerge(ctx, epoch, st.Token)
}

func (s *Service) now() time.Time {
	t := s.clock()
	if s.loc != nil {
		t = t.In(s.loc)
	}
	return t
}

func (s *Service) load(ctx context.Context) progress.LearnerProgress {
	p, err := progress.LoadProgress(ctx, s.store)
	if err != nil {
		s.logger.Warn("load progress, using default", zap.Error(err))
	}
	return p
}

// persistLocked writes p. Callers hold s.mu so writes land in the same
// order as in-memory swaps.
func (s *Service) persistLocked(ctx context.Context, p progress.LearnerProgress) {
	if err := progress.SaveProgress(ctx, s.store, p); err != nil {
		s.dirty = true
		s.logger.Warn("save progress", zap.Error(err))
		return
	}
	s.dirty = false
}
