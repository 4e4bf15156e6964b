package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"homework_status_bot/internal/domain/homework"
	"homework_status_bot/internal/infra/practicum"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchStatus(ctx context.Context, since time.Time) (any, error) {
	args := m.Called(ctx, since)
	return args.Get(0), args.Error(1)
}

// recordingNotifier keeps every text it was asked to deliver.
type recordingNotifier struct {
	sent      []string
	delivered bool
}

func (n *recordingNotifier) Notify(_ context.Context, text string) bool {
	n.sent = append(n.sent, text)
	return n.delivered
}

type memoryJournal struct {
	records []*homework.Notification
	err     error
}

func (j *memoryJournal) SaveNotification(_ context.Context, n *homework.Notification) error {
	j.records = append(j.records, n)
	return j.err
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func response(items ...map[string]any) map[string]any {
	homeworks := make([]any, 0, len(items))
	for _, item := range items {
		homeworks = append(homeworks, item)
	}
	return map[string]any{"homeworks": homeworks, "current_date": float64(fixedNow.Unix())}
}

func submission(name, status string) map[string]any {
	return map[string]any{"homework_name": name, "status": status}
}

type fixture struct {
	service  *WatchService
	fetcher  *mockFetcher
	notifier *recordingNotifier
	journal  *memoryJournal
	logHook  *test.Hook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	f := &fixture{
		fetcher:  &mockFetcher{},
		notifier: &recordingNotifier{delivered: true},
		journal:  &memoryJournal{},
		logHook:  hook,
	}
	f.service = NewWatchService(f.fetcher, f.notifier, f.journal, NewErrorRegistry(0), 30*24*time.Hour, logrus.NewEntry(logger))
	f.service.now = func() time.Time { return fixedNow }
	return f
}

func TestRunCycle_QueriesTrailingWindow(t *testing.T) {
	f := newFixture(t)
	wantSince := fixedNow.Add(-30 * 24 * time.Hour)
	f.fetcher.On("FetchStatus", mock.Anything, wantSince).Return(response(), nil).Twice()

	f.service.RunCycle(context.Background())
	f.service.RunCycle(context.Background())

	f.fetcher.AssertExpectations(t)
}

func TestRunCycle_NotifiesOnStatusChange(t *testing.T) {
	f := newFixture(t)
	f.fetcher.On("FetchStatus", mock.Anything, mock.Anything).
		Return(response(submission("A", "reviewing")), nil).Once()
	f.fetcher.On("FetchStatus", mock.Anything, mock.Anything).
		Return(response(submission("A", "approved")), nil).Once()

	f.service.RunCycle(context.Background())
	f.service.RunCycle(context.Background())

	require.Len(t, f.notifier.sent, 2)
	assert.NotEqual(t, f.notifier.sent[0], f.notifier.sent[1])
	assert.Contains(t, f.notifier.sent[0], "Работа взята на проверку ревьюером.")
	assert.Contains(t, f.notifier.sent[1], "ревьюеру всё понравилось")
	assert.Equal(t, f.notifier.sent[1], f.service.LastMessage())
}

func TestRunCycle_SameStatusNotifiesOnce(t *testing.T) {
	f := newFixture(t)
	f.fetcher.On("FetchStatus", mock.Anything, mock.Anything).
		Return(response(submission("Project 1", "approved")), nil)

	for i := 0; i < 5; i++ {
		f.service.RunCycle(context.Background())
	}

	require.Len(t, f.notifier.sent, 1)
	assert.Contains(t, f.notifier.sent[0], "Project 1")
	require.Len(t, f.journal.records, 1)
	assert.Equal(t, homework.NotificationKindStatus, f.journal.records[0].Kind)
	assert.True(t, f.journal.records[0].Delivered)
}

func TestRunCycle_TracksFirstSubmissionOnly(t *testing.T) {
	f := newFixture(t)
	f.fetcher.On("FetchStatus", mock.Anything, mock.Anything).
		Return(response(submission("latest", "rejected"), submission("older", "approved")), nil)

	f.service.RunCycle(context.Background())

	require.Len(t, f.notifier.sent, 1)
	assert.Contains(t, f.notifier.sent[0], `"latest"`)
	assert.NotContains(t, f.notifier.sent[0], "older")
}

func TestRunCycle_EmptySubmissionsIsNotAnError(t *testing.T) {
	f := newFixture(t)
	f.fetcher.On("FetchStatus", mock.Anything, mock.Anything).Return(response(), nil)

	f.service.RunCycle(context.Background())

	assert.Empty(t, f.notifier.sent)
	assert.Empty(t, f.service.LastMessage())
	assert.Equal(t, 0, f.service.seenErrors.Len())

	var found bool
	for _, entry := range f.logHook.AllEntries() {
		if strings.Contains(entry.Message, "No homework submissions") {
			found = true
			assert.Equal(t, logrus.InfoLevel, entry.Level)
		}
	}
	assert.True(t, found)
}

func TestRunCycle_TransportFailureIsReportedOnce(t *testing.T) {
	f := newFixture(t)
	connErr := &practicum.ConnectionError{Endpoint: "https://example.test/", Err: assert.AnError}
	f.fetcher.On("FetchStatus", mock.Anything, mock.Anything).Return(nil, connErr)

	assert.NotPanics(t, func() {
		for i := 0; i < 10; i++ {
			f.service.RunCycle(context.Background())
		}
	})

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, ErrorMessagePrefix+connErr.Error(), f.notifier.sent[0])
	assert.Equal(t, 1, f.service.seenErrors.Len())
	require.Len(t, f.journal.records, 1)
	assert.Equal(t, homework.NotificationKindError, f.journal.records[0].Kind)
	f.fetcher.AssertNumberOfCalls(t, "FetchStatus", 10)
}

func TestRunCycle_DistinctErrorsReportedSeparately(t *testing.T) {
	f := newFixture(t)
	f.fetcher.On("FetchStatus", mock.Anything, mock.Anything).
		Return(nil, &practicum.UpstreamError{Endpoint: "e", StatusCode: 500}).Twice()
	f.fetcher.On("FetchStatus", mock.Anything, mock.Anything).
		Return(map[string]any{"current_date": float64(1)}, nil).Twice()
	f.fetcher.On("FetchStatus", mock.Anything, mock.Anything).
		Return(response(submission("A", "unknown")), nil).Twice()

	for i := 0; i < 6; i++ {
		f.service.RunCycle(context.Background())
	}

	require.Len(t, f.notifier.sent, 3)
	assert.Contains(t, f.notifier.sent[0], "returned status 500")
	assert.Contains(t, f.notifier.sent[1], `missing key "homeworks"`)
	assert.Contains(t, f.notifier.sent[2], `unknown homework status "unknown"`)
	for _, text := range f.notifier.sent {
		assert.True(t, strings.HasPrefix(text, ErrorMessagePrefix))
	}
}

func TestRunCycle_ErrorDoesNotResetLastMessage(t *testing.T) {
	f := newFixture(t)
	f.fetcher.On("FetchStatus", mock.Anything, mock.Anything).
		Return(response(submission("A", "reviewing")), nil).Once()
	f.fetcher.On("FetchStatus", mock.Anything, mock.Anything).
		Return(nil, &practicum.UpstreamError{Endpoint: "e", StatusCode: 502}).Once()
	f.fetcher.On("FetchStatus", mock.Anything, mock.Anything).
		Return(response(submission("A", "reviewing")), nil).Once()

	for i := 0; i < 3; i++ {
		f.service.RunCycle(context.Background())
	}

	require.Len(t, f.notifier.sent, 2)
	assert.Contains(t, f.notifier.sent[0], "Работа взята на проверку")
	assert.Contains(t, f.notifier.sent[1], ErrorMessagePrefix)
}

func TestRunCycle_DeliveryFailureDoesNotStopLoop(t *testing.T) {
	f := newFixture(t)
	f.notifier.delivered = false
	f.fetcher.On("FetchStatus", mock.Anything, mock.Anything).
		Return(response(submission("A", "approved")), nil)

	f.service.RunCycle(context.Background())
	f.service.RunCycle(context.Background())

	// The message counts as sent even when Telegram rejected it.
	require.Len(t, f.notifier.sent, 1)
	require.Len(t, f.journal.records, 1)
	assert.False(t, f.journal.records[0].Delivered)
}

func TestRunCycle_JournalFailureIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.journal.err = assert.AnError
	f.fetcher.On("FetchStatus", mock.Anything, mock.Anything).
		Return(response(submission("A", "approved")), nil)

	f.service.RunCycle(context.Background())

	assert.Len(t, f.notifier.sent, 1)
	assert.NotEmpty(t, f.service.LastMessage())
	var warned bool
	for _, entry := range f.logHook.AllEntries() {
		if entry.Level == logrus.WarnLevel && strings.Contains(entry.Message, "journal") {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestRunCycle_JournalRecordsCarryCycleID(t *testing.T) {
	f := newFixture(t)
	f.fetcher.On("FetchStatus", mock.Anything, mock.Anything).
		Return(response(submission("A", "reviewing")), nil).Once()
	f.fetcher.On("FetchStatus", mock.Anything, mock.Anything).
		Return(response(submission("A", "rejected")), nil).Once()

	f.service.RunCycle(context.Background())
	f.service.RunCycle(context.Background())

	require.Len(t, f.journal.records, 2)
	assert.NotEqual(t, f.journal.records[0].CycleID, f.journal.records[1].CycleID)
	assert.NotEqual(t, f.journal.records[0].ID, f.journal.records[1].ID)
	assert.Equal(t, fixedNow, f.journal.records[0].CreatedAt)
}

func TestRunCycle_ShutdownIsNotReported(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	connErr := &practicum.ConnectionError{Endpoint: "https://example.test/", Err: context.Canceled}
	f.fetcher.On("FetchStatus", mock.Anything, mock.Anything).Return(nil, connErr)

	f.service.RunCycle(ctx)

	assert.Empty(t, f.notifier.sent)
	assert.Empty(t, f.journal.records)
	assert.Equal(t, 0, f.service.seenErrors.Len())
	for _, entry := range f.logHook.AllEntries() {
		assert.NotEqual(t, logrus.ErrorLevel, entry.Level)
	}
}
