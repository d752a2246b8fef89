package tracker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/awwal/internal/progress"
	"github.com/abhisek/awwal/internal/remote"
	"github.com/abhisek/awwal/internal/store"
)

// SyncKind names a background exchange with the account API.
type SyncKind string

const (
	SyncComplete SyncKind = "complete"
	SyncFetch    SyncKind = "fetch"
)

// SyncResult reports how a background exchange ended. Err is nil on
// success. Stale is set when a fetch finished after the session changed
// and its data was discarded.
type SyncResult struct {
	ID       uuid.UUID
	Kind     SyncKind
	LevelID  string
	LessonID string
	Err      error
	Stale    bool
	At       time.Time
}

// SyncLog persists sync results. store.SyncEventRepo satisfies it.
type SyncLog interface {
	AppendSyncEvent(ctx context.Context, data store.SyncEventData) error
}

// background runs fn on a tracked goroutine with a context that survives
// the caller's cancellation but is bounded by the sync timeout.
func (s *Service) background(ctx context.Context, fn func(ctx context.Context)) {
	s.wg.Add(1)
	s.inflight.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.inflight.Add(-1)

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.syncTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (s *Service) pushCompletion(ctx context.Context, token, levelID, lessonID string) {
	s.background(ctx, func(ctx context.Context) {
		err := s.client.CompleteLesson(ctx, token, levelID, lessonID)
		s.report(ctx, SyncResult{
			Kind:     SyncComplete,
			LevelID:  levelID,
			LessonID: lessonID,
			Err:      err,
		})
	})
}

// pullAndMerge fetches account progress and merges it into whatever record
// is current when the response arrives. Results for an older session epoch
// are dropped.
func (s *Service) pullAndMerge(ctx context.Context, epoch uint64, token string) {
	s.background(ctx, func(ctx context.Context) {
		resp, err := s.client.FetchProgress(ctx, token)
		if err != nil {
			s.report(ctx, SyncResult{Kind: SyncFetch, Err: err})
			return
		}
		incoming := resp.ToLearnerProgress()

		s.mu.Lock()
		if s.epoch != epoch {
			s.mu.Unlock()
			s.report(ctx, SyncResult{Kind: SyncFetch, Stale: true})
			return
		}
		merged := progress.Merge(s.current, incoming)
		s.current = merged
		s.persistLocked(ctx, merged)
		s.mu.Unlock()

		s.report(ctx, SyncResult{Kind: SyncFetch})
	})
}

func (s *Service) report(ctx context.Context, res SyncResult) {
	res.ID = uuid.New()
	if res.At.IsZero() {
		res.At = s.clock()
	}

	fields := []zap.Field{
		zap.String("sync_id", res.ID.String()),
		zap.String("kind", string(res.Kind)),
	}
	if res.LevelID != "" {
		fields = append(fields, zap.String("level_id", res.LevelID), zap.String("lesson_id", res.LessonID))
	}
	switch {
	case res.Err != nil:
		fields = append(fields, zap.Int("status", remote.StatusCode(res.Err)), zap.Error(res.Err))
		s.logger.Warn("background sync failed", fields...)
	case res.Stale:
		s.logger.Debug("discarded stale fetch", fields...)
	default:
		s.logger.Debug("background sync done", fields...)
	}

	if s.syncLog != nil && !res.Stale {
		ev := store.SyncEventData{
			EventID:   res.ID.String(),
			Kind:      string(res.Kind),
			LevelID:   res.LevelID,
			LessonID:  res.LessonID,
			Success:   res.Err == nil,
			Timestamp: res.At,
		}
		if res.Err != nil {
			ev.ErrorMessage = res.Err.Error()
		}
		if err := s.syncLog.AppendSyncEvent(context.WithoutCancel(ctx), ev); err != nil {
			s.logger.Warn("append sync event", zap.Error(err))
		}
	}

	if s.observer != nil {
		s.observer(res)
	}
}
