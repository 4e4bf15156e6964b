package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CycleRunner executes a single poll cycle. Implementations report their own
// failures; the scheduler only keeps them running.
type CycleRunner interface {
	RunCycle(ctx context.Context)
}

// afterSchedule fires once at the given moment and never again.
type afterSchedule struct {
	at time.Time
}

func (s afterSchedule) Next(now time.Time) time.Time {
	if now.Before(s.at) {
		return s.at
	}
	return time.Time{}
}

// PollScheduler runs one cycle immediately and then sleeps for the interval
// after every finished cycle. The next run is scheduled only when the
// previous one has returned, so cycles never overlap.
type PollScheduler struct {
	cronEngine *cron.Cron
	runner     CycleRunner
	interval   time.Duration
	logger     *logrus.Entry

	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	entryID cron.EntryID
}

func NewPollScheduler(runner CycleRunner, interval time.Duration, logger *logrus.Entry) *PollScheduler {
	return &PollScheduler{
		cronEngine: cron.New(
			cron.WithLocation(time.Local),
			cron.WithLogger(cron.PrintfLogger(logger)),
		),
		runner:   runner,
		interval: interval,
		logger:   logger,
	}
}

func (s *PollScheduler) Start() error {
	if s.interval <= 0 {
		return errors.Newf("poll interval must be positive, got %s", s.interval)
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.logger.WithField("interval", s.interval.String()).Info("Starting homework poll scheduler...")

	s.cronEngine.Start()
	// The first cycle does not wait for the interval.
	go s.runCycle()

	s.logger.Info("Homework poll scheduler started")
	return nil
}

func (s *PollScheduler) runCycle() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return
	}

	s.runOnce()
	s.scheduleNext(time.Now())
}

func (s *PollScheduler) runOnce() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("panic", r).Error("Poll cycle panicked")
		}
	}()
	s.runner.RunCycle(s.ctx)
}

// scheduleNext replaces the spent one-shot entry with a new one firing one
// interval after finishedAt. Must be called with mu held.
func (s *PollScheduler) scheduleNext(finishedAt time.Time) {
	if s.ctx.Err() != nil {
		return
	}
	if s.entryID != 0 {
		s.cronEngine.Remove(s.entryID)
	}
	next := finishedAt.Add(s.interval)
	s.entryID = s.cronEngine.Schedule(afterSchedule{at: next}, cron.FuncJob(s.runCycle))
	s.logger.WithField("next_run", next.Format(time.RFC3339)).Debug("Next poll cycle scheduled")
}

// Stop cancels the running cycle and waits for it to return.
func (s *PollScheduler) Stop() {
	s.logger.Info("Stopping homework poll scheduler...")
	if s.cancel != nil {
		s.cancel()
	}
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	// Wait for the immediate run, which cron does not track.
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Info("Homework poll scheduler gracefully stopped")
}
