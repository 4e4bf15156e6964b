// internal/app/watch_service.go
package app

import (
	"context"
	"time"

	"homework_status_bot/internal/domain/homework"
	domainTelegram "homework_status_bot/internal/domain/telegram"
	"homework_status_bot/internal/infra/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrorMessagePrefix starts every failure report sent to the operator.
const ErrorMessagePrefix = "Сбой в работе программы: "

// StatusFetcher returns the raw homework status response for the window
// starting at since.
type StatusFetcher interface {
	FetchStatus(ctx context.Context, since time.Time) (any, error)
}

// WatchService runs poll cycles: fetch, validate, detect a status change and
// notify. It holds the state carried between cycles and must not run
// cycles concurrently.
type WatchService struct {
	fetcher    StatusFetcher
	notifier   domainTelegram.Notifier
	journal    homework.Journal
	seenErrors *ErrorRegistry
	lookback   time.Duration
	now        func() time.Time
	logger     *logrus.Entry

	lastMessage string
}

func NewWatchService(
	fetcher StatusFetcher,
	notifier domainTelegram.Notifier,
	journal homework.Journal,
	seenErrors *ErrorRegistry,
	lookback time.Duration,
	logger *logrus.Entry,
) *WatchService {
	return &WatchService{
		fetcher:    fetcher,
		notifier:   notifier,
		journal:    journal,
		seenErrors: seenErrors,
		lookback:   lookback,
		now:        time.Now,
		logger:     logger,
	}
}

// RunCycle executes one poll cycle. Every failure is reported through the
// de-duplicated error path; nothing escapes to the caller.
func (s *WatchService) RunCycle(ctx context.Context) {
	cycleID := uuid.New()
	logCtx := s.logger.WithField("cycle_id", cycleID.String())

	if err := s.checkStatus(ctx, cycleID, logCtx); err != nil {
		if ctx.Err() != nil {
			logCtx.WithError(err).Info("Poll cycle interrupted by shutdown")
			return
		}
		metrics.RecordCycle(metrics.CycleResultError, s.now())
		s.reportError(ctx, cycleID, err, logCtx)
		return
	}

	metrics.RecordCycle(metrics.CycleResultOK, s.now())
	logCtx.Info("Homework status check completed")
}

func (s *WatchService) checkStatus(ctx context.Context, cycleID uuid.UUID, logCtx *logrus.Entry) error {
	since := s.now().Add(-s.lookback)

	response, err := s.fetcher.FetchStatus(ctx, since)
	if err != nil {
		return err
	}

	homeworks, err := homework.ExtractSubmissions(response)
	if err != nil {
		return err
	}
	if len(homeworks) == 0 {
		logCtx.WithField("from_date", since.Unix()).Info("No homework submissions in the query window")
		return nil
	}

	// Only the most recent submission is tracked.
	message, err := homework.DeriveStatusMessage(homeworks[0])
	if err != nil {
		return err
	}

	if message == s.lastMessage {
		logCtx.Debug("Homework status unchanged")
		return nil
	}

	s.dispatch(ctx, cycleID, homework.NotificationKindStatus, message, logCtx)
	s.lastMessage = message
	return nil
}

func (s *WatchService) reportError(ctx context.Context, cycleID uuid.UUID, cause error, logCtx *logrus.Entry) {
	text := ErrorMessagePrefix + cause.Error()
	logCtx.WithError(cause).Error("Poll cycle failed")

	if s.seenErrors.Seen(text) {
		logCtx.Debug("Error already reported, not notifying again")
		return
	}

	s.dispatch(ctx, cycleID, homework.NotificationKindError, text, logCtx)
	s.seenErrors.Add(text)
}

func (s *WatchService) dispatch(ctx context.Context, cycleID uuid.UUID, kind homework.NotificationKind, text string, logCtx *logrus.Entry) {
	delivered := s.notifier.Notify(ctx, text)
	metrics.RecordNotification(string(kind), delivered)

	logCtx.WithFields(logrus.Fields{
		"kind":      kind,
		"delivered": delivered,
	}).Info("Notification dispatched")

	record := &homework.Notification{
		ID:        uuid.New(),
		CycleID:   cycleID,
		Kind:      kind,
		Text:      text,
		Delivered: delivered,
		CreatedAt: s.now(),
	}
	if err := s.journal.SaveNotification(ctx, record); err != nil {
		logCtx.WithError(err).Warn("Could not record notification in journal")
	}
}

// LastMessage returns the text of the last status notification.
func (s *WatchService) LastMessage() string {
	return s.lastMessage
}
