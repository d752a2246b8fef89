package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// AutoSync refreshes a Service on a fixed interval.
type AutoSync struct {
	scheduler *gocron.Scheduler
	svc       *Service
	interval  time.Duration
}

// NewAutoSync creates an AutoSync for svc. A non-positive interval uses
// the default.
func NewAutoSync(svc *Service, interval time.Duration) *AutoSync {
	if interval <= 0 {
		interval = DefaultConfig().AutoSyncInterval
	}
	loc := svc.loc
	if loc == nil {
		loc = time.Local
	}
	return &AutoSync{
		scheduler: gocron.NewScheduler(loc),
		svc:       svc,
		interval:  interval,
	}
}

// Start schedules the refresh job and returns without blocking. The first
// refresh runs immediately. Refreshes do not overlap.
func (a *AutoSync) Start(ctx context.Context) error {
	_, err := a.scheduler.Every(a.interval).SingletonMode().Do(func() {
		if ctx.Err() != nil {
			return
		}
		a.svc.Refresh(ctx)
		a.svc.Wait()
		a.svc.logger.Debug("auto sync tick", zap.Int("lessons", len(a.svc.Progress().LessonProgress)))
	})
	if err != nil {
		return fmt.Errorf("schedule auto sync: %w", err)
	}

	a.scheduler.StartAsync()
	return nil
}

// Stop halts the schedule. Running refreshes are left to finish; call
// Service.Wait to block on them.
func (a *AutoSync) Stop() {
	a.scheduler.Stop()
}
