package core

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestTracker(now *time.Time) *AbuseTracker {
	tracker := NewAbuseTracker(zap.NewNop(), 60*time.Second, 5)
	tracker.now = func() time.Time { return *now }
	return tracker
}

func TestRecordSuspiciousCountsWithinWindow(t *testing.T) {
	now := testNow
	tracker := newTestTracker(&now)

	for i := 1; i <= 4; i++ {
		assert.Equal(t, i, tracker.RecordSuspicious("user-1"))
		assert.False(t, tracker.ShouldRateLimit("user-1"))
	}

	assert.Equal(t, 5, tracker.RecordSuspicious("user-1"))
	assert.True(t, tracker.ShouldRateLimit("user-1"))
}

func TestWindowExpiry(t *testing.T) {
	now := testNow
	tracker := newTestTracker(&now)

	for i := 0; i < 5; i++ {
		tracker.RecordSuspicious("user-1")
	}
	assert.True(t, tracker.ShouldRateLimit("user-1"))

	// 61 seconds later the window is empty again.
	now = now.Add(61 * time.Second)
	assert.False(t, tracker.ShouldRateLimit("user-1"))
	assert.Equal(t, 1, tracker.RecordSuspicious("user-1"))
}

func TestClearWindow(t *testing.T) {
	now := testNow
	tracker := newTestTracker(&now)

	for i := 0; i < 5; i++ {
		tracker.RecordSuspicious("user-1")
	}
	tracker.ClearWindow("user-1")

	assert.False(t, tracker.ShouldRateLimit("user-1"))
	assert.Equal(t, 1, tracker.RecordSuspicious("user-1"))
}

func TestUsersAreIsolated(t *testing.T) {
	now := testNow
	tracker := newTestTracker(&now)

	for i := 0; i < 5; i++ {
		tracker.RecordSuspicious("user-1")
	}

	assert.True(t, tracker.ShouldRateLimit("user-1"))
	assert.False(t, tracker.ShouldRateLimit("user-2"))
	assert.Equal(t, 1, tracker.RecordSuspicious("user-2"))
}

func TestRecordConfirmedSpamIsMonotonic(t *testing.T) {
	now := testNow
	tracker := newTestTracker(&now)

	assert.Equal(t, 1, tracker.RecordConfirmedSpam("user-1"))
	assert.Equal(t, 2, tracker.RecordConfirmedSpam("user-1"))
	assert.Equal(t, 3, tracker.RecordConfirmedSpam("user-1"))

	// Clearing the window never resets the confirmed counter.
	tracker.ClearWindow("user-1")
	assert.Equal(t, 4, tracker.RecordConfirmedSpam("user-1"))

	assert.Equal(t, 1, tracker.RecordConfirmedSpam("user-2"))
}

func TestConcurrentRecording(t *testing.T) {
	now := testNow
	tracker := newTestTracker(&now)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.RecordSuspicious("user-1")
			tracker.RecordConfirmedSpam("user-2")
		}()
	}
	wg.Wait()

	assert.Equal(t, 51, tracker.RecordSuspicious("user-1"))
	assert.Equal(t, 51, tracker.RecordConfirmedSpam("user-2"))
}
