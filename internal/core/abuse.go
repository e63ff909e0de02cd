package core

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// abuseRecord is the per-user state: suspicious-event timestamps inside the
// sliding window plus the monotonic confirmed-spam counter.
type abuseRecord struct {
	mu        sync.Mutex
	events    []time.Time
	spamCount int
}

// AbuseTracker keeps a per-user sliding window of suspicious events and a
// confirmed-spam counter. Cheap local signal volume is tracked separately
// from expensive confirmed verdicts so a flood can be punished before any
// classifier spend.
type AbuseTracker struct {
	mu      sync.RWMutex
	records map[string]*abuseRecord
	window  time.Duration
	maxHits int
	logger  *zap.Logger
	now     func() time.Time
}

// NewAbuseTracker creates a new abuse tracker
func NewAbuseTracker(logger *zap.Logger, window time.Duration, maxHits int) *AbuseTracker {
	return &AbuseTracker{
		records: make(map[string]*abuseRecord),
		window:  window,
		maxHits: maxHits,
		logger:  logger,
		now:     time.Now,
	}
}

// record returns the user's record, creating it on first use. Cross-user
// operations never contend beyond this map access.
func (t *AbuseTracker) record(userID string) *abuseRecord {
	t.mu.RLock()
	rec, ok := t.records[userID]
	t.mu.RUnlock()
	if ok {
		return rec
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if rec, ok = t.records[userID]; !ok {
		rec = &abuseRecord{}
		t.records[userID] = rec
	}
	return rec
}

// prune drops events older than the window. Callers hold rec.mu.
func (t *AbuseTracker) prune(rec *abuseRecord, now time.Time) {
	cutoff := now.Add(-t.window)
	kept := rec.events[:0]
	for _, ts := range rec.events {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	rec.events = kept
}

// RecordSuspicious appends a suspicious event for the user and returns the
// event count within the current window.
func (t *AbuseTracker) RecordSuspicious(userID string) int {
	rec := t.record(userID)
	rec.mu.Lock()
	defer rec.mu.Unlock()

	now := t.now()
	rec.events = append(rec.events, now)
	t.prune(rec, now)
	return len(rec.events)
}

// ShouldRateLimit reports whether the user has hit the volume threshold
// within the window.
func (t *AbuseTracker) ShouldRateLimit(userID string) bool {
	rec := t.record(userID)
	rec.mu.Lock()
	defer rec.mu.Unlock()

	t.prune(rec, t.now())
	return len(rec.events) >= t.maxHits
}

// ClearWindow empties the user's window after a rate-limit punishment so the
// next message is evaluated against a clean slate.
func (t *AbuseTracker) ClearWindow(userID string) {
	rec := t.record(userID)
	rec.mu.Lock()
	defer rec.mu.Unlock()

	rec.events = rec.events[:0]
}

// RecordConfirmedSpam increments the user's confirmed-spam counter and
// returns the occurrence number, which drives punishment severity.
func (t *AbuseTracker) RecordConfirmedSpam(userID string) int {
	rec := t.record(userID)
	rec.mu.Lock()
	defer rec.mu.Unlock()

	rec.spamCount++
	t.logger.Info("Confirmed spam recorded",
		zap.String("user_id", userID),
		zap.Int("occurrence", rec.spamCount))
	return rec.spamCount
}
