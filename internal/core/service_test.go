package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubFilter struct {
	suspicious bool
	reason     string
	panics     bool
}

func (f *stubFilter) Evaluate(msg *Message) (bool, string) {
	if f.panics {
		panic("filter bug")
	}
	return f.suspicious, f.reason
}

type stubClassifier struct {
	spam  bool
	err   error
	calls int
}

func (c *stubClassifier) Classify(ctx context.Context, text string) (bool, error) {
	c.calls++
	return c.spam, c.err
}

type actionRecorder struct {
	deleted    []string
	timeouts   []time.Duration
	notices    []string
	deleteErr  error
	timeoutErr error
	noticeErr  error
}

func (r *actionRecorder) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.deleted = append(r.deleted, messageID)
	return nil
}

func (r *actionRecorder) TimeoutUser(ctx context.Context, guildID, userID string, duration time.Duration, reason string) error {
	if r.timeoutErr != nil {
		return r.timeoutErr
	}
	r.timeouts = append(r.timeouts, duration)
	return nil
}

func (r *actionRecorder) Notify(ctx context.Context, channelID, text, mentionUserID string) error {
	if r.noticeErr != nil {
		return r.noticeErr
	}
	r.notices = append(r.notices, text)
	return nil
}

type memStore struct {
	snapshot *MetricsSnapshot
	saves    int
	saveErr  error
}

func (s *memStore) Load(ctx context.Context) (*MetricsSnapshot, error) {
	if s.snapshot == nil {
		s.snapshot = &MetricsSnapshot{StartDate: testNow}
	}
	return s.snapshot, nil
}

func (s *memStore) Save(ctx context.Context, snapshot *MetricsSnapshot) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	return nil
}

type memAudit struct {
	entries []*AuditEntry
}

func (a *memAudit) RecordAction(entry *AuditEntry) {
	a.entries = append(a.entries, entry)
}

type serviceFixture struct {
	service    *ModerationService
	filter     *stubFilter
	classifier *stubClassifier
	actions    *actionRecorder
	store      *memStore
	audit      *memAudit
	tracker    *AbuseTracker
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	fixture := &serviceFixture{
		filter:     &stubFilter{},
		classifier: &stubClassifier{},
		actions:    &actionRecorder{},
		store:      &memStore{},
		audit:      &memAudit{},
		tracker:    NewAbuseTracker(zap.NewNop(), 60*time.Second, 5),
	}

	service, err := NewModerationService(
		fixture.filter,
		fixture.classifier,
		fixture.tracker,
		NewPunishmentPolicy(10*time.Minute),
		fixture.actions,
		fixture.store,
		fixture.audit,
		zap.NewNop(),
	)
	require.NoError(t, err)

	fixture.service = service
	return fixture
}

func testMessage(userID string) *Message {
	return &Message{
		UserID:           userID,
		Username:         "someone",
		GuildID:          "guild-1",
		ChannelID:        "chan-1",
		MessageID:        "msg-" + userID,
		Content:          "DM me for a free crypto giveaway!!!",
		AccountCreatedAt: testNow.Add(-24 * time.Hour),
	}
}

func TestHandleMessageClear(t *testing.T) {
	f := newServiceFixture(t)
	f.filter.suspicious = false
	f.filter.reason = "no suspicion found"

	result := f.service.HandleMessage(context.Background(), testMessage("user-1"))

	assert.Equal(t, VerdictClear, result.Verdict)
	assert.Zero(t, f.classifier.calls)
	assert.Empty(t, f.actions.deleted)

	snapshot := f.service.Snapshot()
	assert.Equal(t, int64(1), snapshot.TotalMessages)
	assert.Equal(t, int64(1), snapshot.FilteredLocally)
	assert.Equal(t, int64(0), snapshot.SentToAPI)
	assert.Equal(t, 1, f.store.saves)
}

func TestHandleMessageConfirmedSpam(t *testing.T) {
	f := newServiceFixture(t)
	f.filter.suspicious = true
	f.filter.reason = "scam keyword"
	f.classifier.spam = true

	msg := testMessage("user-1")
	result := f.service.HandleMessage(context.Background(), msg)

	assert.Equal(t, VerdictConfirmedSpam, result.Verdict)
	assert.Equal(t, 1, result.Occurrence)
	assert.Equal(t, 10*time.Minute, result.Timeout)

	assert.Equal(t, []string{msg.MessageID}, f.actions.deleted)
	assert.Equal(t, []time.Duration{10 * time.Minute}, f.actions.timeouts)
	require.Len(t, f.actions.notices, 1)
	assert.Contains(t, f.actions.notices[0], "removed as spam")

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, VerdictConfirmedSpam, f.audit.entries[0].Verdict)
	assert.Equal(t, msg.Content, f.audit.entries[0].Content)

	snapshot := f.service.Snapshot()
	assert.Equal(t, int64(1), snapshot.TotalMessages)
	assert.Equal(t, int64(1), snapshot.SentToAPI)
	assert.Equal(t, int64(1), snapshot.SpamDetected)
	assert.Equal(t, int64(0), snapshot.FilteredLocally)
}

func TestHandleMessageConfirmedClean(t *testing.T) {
	f := newServiceFixture(t)
	f.filter.suspicious = true
	f.classifier.spam = false

	result := f.service.HandleMessage(context.Background(), testMessage("user-1"))

	assert.Equal(t, VerdictConfirmedClean, result.Verdict)
	assert.Equal(t, 1, f.classifier.calls)
	assert.Empty(t, f.actions.deleted)
	assert.Empty(t, f.actions.timeouts)

	snapshot := f.service.Snapshot()
	assert.Equal(t, int64(1), snapshot.SentToAPI)
	assert.Equal(t, int64(0), snapshot.SpamDetected)
}

func TestEscalationIsMonotonicPerUser(t *testing.T) {
	f := newServiceFixture(t)
	f.filter.suspicious = true
	f.classifier.spam = true

	var timeouts []time.Duration
	for i := 1; i <= 3; i++ {
		result := f.service.HandleMessage(context.Background(), testMessage("user-1"))
		assert.Equal(t, VerdictConfirmedSpam, result.Verdict)
		assert.Equal(t, i, result.Occurrence)
		timeouts = append(timeouts, result.Timeout)
	}

	assert.Equal(t, []time.Duration{10 * time.Minute, 20 * time.Minute, 30 * time.Minute}, timeouts)
}

func TestRateLimitPathSkipsClassifier(t *testing.T) {
	f := newServiceFixture(t)
	f.filter.suspicious = true
	f.classifier.spam = false

	// First four suspicious messages go to the classifier.
	for i := 0; i < 4; i++ {
		result := f.service.HandleMessage(context.Background(), testMessage("user-1"))
		assert.Equal(t, VerdictConfirmedClean, result.Verdict)
	}
	assert.Equal(t, 4, f.classifier.calls)

	// The fifth trips the volume threshold: punished with no API spend.
	result := f.service.HandleMessage(context.Background(), testMessage("user-1"))
	assert.Equal(t, VerdictSuspiciousLocalPunish, result.Verdict)
	assert.Equal(t, 10*time.Minute, result.Timeout)
	assert.Equal(t, 4, f.classifier.calls)
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, VerdictSuspiciousLocalPunish, f.audit.entries[0].Verdict)

	snapshot := f.service.Snapshot()
	assert.Equal(t, int64(5), snapshot.TotalMessages)
	assert.Equal(t, int64(4), snapshot.SentToAPI)
	assert.Equal(t, int64(1), snapshot.FilteredLocally)

	// The window was cleared, so the next message reaches the classifier.
	result = f.service.HandleMessage(context.Background(), testMessage("user-1"))
	assert.Equal(t, VerdictConfirmedClean, result.Verdict)
	assert.Equal(t, 5, f.classifier.calls)
}

func TestClassifierRateLimitFailsOpen(t *testing.T) {
	f := newServiceFixture(t)
	f.filter.suspicious = true
	f.classifier.err = fmt.Errorf("provider throttled: %w", ErrRateLimited)

	result := f.service.HandleMessage(context.Background(), testMessage("user-1"))

	assert.Equal(t, VerdictConfirmedClean, result.Verdict)
	// The call is never retried within the same message's handling.
	assert.Equal(t, 1, f.classifier.calls)
	assert.Empty(t, f.actions.deleted)
	assert.Empty(t, f.actions.timeouts)

	snapshot := f.service.Snapshot()
	assert.Equal(t, int64(1), snapshot.SentToAPI)
}

func TestClassifierTransportErrorFailsOpen(t *testing.T) {
	f := newServiceFixture(t)
	f.filter.suspicious = true
	f.classifier.err = errors.New("connection reset")

	result := f.service.HandleMessage(context.Background(), testMessage("user-1"))

	assert.Equal(t, VerdictConfirmedClean, result.Verdict)
	assert.Empty(t, f.actions.deleted)
}

func TestPermissionDenialFallsBackToNotice(t *testing.T) {
	f := newServiceFixture(t)
	f.filter.suspicious = true
	f.classifier.spam = true
	f.actions.deleteErr = fmt.Errorf("delete message: %w", ErrInsufficientPermission)
	f.actions.timeoutErr = fmt.Errorf("timeout user: %w", ErrInsufficientPermission)

	result := f.service.HandleMessage(context.Background(), testMessage("user-1"))

	assert.Equal(t, VerdictConfirmedSpam, result.Verdict)
	require.Len(t, f.actions.notices, 1)
	assert.Contains(t, f.actions.notices[0], "flagged as spam")
}

func TestPreFilterPanicFailsOpen(t *testing.T) {
	f := newServiceFixture(t)
	f.filter.panics = true

	result := f.service.HandleMessage(context.Background(), testMessage("user-1"))

	assert.Equal(t, VerdictClear, result.Verdict)
	assert.Zero(t, f.classifier.calls)

	snapshot := f.service.Snapshot()
	assert.Equal(t, int64(1), snapshot.TotalMessages)
	assert.Equal(t, int64(1), snapshot.FilteredLocally)
}

func TestPersistenceFaultDoesNotBlockPipeline(t *testing.T) {
	f := newServiceFixture(t)
	f.filter.suspicious = false
	f.store.saveErr = errors.New("disk full")

	result := f.service.HandleMessage(context.Background(), testMessage("user-1"))

	assert.Equal(t, VerdictClear, result.Verdict)
	// In-memory counters stay authoritative.
	snapshot := f.service.Snapshot()
	assert.Equal(t, int64(1), snapshot.TotalMessages)
}

func TestMetricsInvariantHoldsAcrossMixedTraffic(t *testing.T) {
	f := newServiceFixture(t)

	for i := 0; i < 20; i++ {
		f.filter.suspicious = i%3 == 0
		f.classifier.spam = i%6 == 0
		f.service.HandleMessage(context.Background(), testMessage(fmt.Sprintf("user-%d", i)))
	}

	snapshot := f.service.Snapshot()
	assert.Equal(t, int64(20), snapshot.TotalMessages)
	assert.Equal(t, snapshot.TotalMessages, snapshot.FilteredLocally+snapshot.SentToAPI)
}
