package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ModerationService composes the pre-filter, abuse tracker, classifier and
// platform actions into the per-message pipeline. No error originating here
// may ever prevent subsequent messages from being processed: every failure
// path degrades to allowing traffic and logging.
type ModerationService struct {
	preFilter  SuspicionFilter
	classifier Classifier
	tracker    *AbuseTracker
	policy     *PunishmentPolicy
	moderator  Moderator
	store      MetricsStore
	audit      AuditLogger
	logger     *zap.Logger

	metricsMu sync.Mutex
	metrics   *MetricsSnapshot
}

// NewModerationService creates the moderation pipeline and loads the
// persisted metrics snapshot.
func NewModerationService(
	preFilter SuspicionFilter,
	classifier Classifier,
	tracker *AbuseTracker,
	policy *PunishmentPolicy,
	moderator Moderator,
	store MetricsStore,
	audit AuditLogger,
	logger *zap.Logger,
) (*ModerationService, error) {
	metrics, err := store.Load(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to load metrics: %w", err)
	}

	return &ModerationService{
		preFilter:  preFilter,
		classifier: classifier,
		tracker:    tracker,
		policy:     policy,
		moderator:  moderator,
		store:      store,
		audit:      audit,
		logger:     logger,
		metrics:    metrics,
	}, nil
}

// HandleMessage runs one message through the pipeline and applies whatever
// enforcement the terminal state requires.
func (s *ModerationService) HandleMessage(ctx context.Context, msg *Message) *ModerationResult {
	suspicious, reason := s.evaluateSafely(msg)
	if !suspicious {
		s.updateMetrics(ctx, func(m *MetricsSnapshot) {
			m.TotalMessages++
			m.FilteredLocally++
		})
		return &ModerationResult{Verdict: VerdictClear, Reason: reason}
	}

	count := s.tracker.RecordSuspicious(msg.UserID)
	s.logger.Info("Suspicious message recorded",
		zap.String("user_id", msg.UserID),
		zap.String("reason", reason),
		zap.Int("window_count", count))

	if s.tracker.ShouldRateLimit(msg.UserID) {
		return s.punishRateLimited(ctx, msg, reason)
	}

	// The classifier call is counted as spent before the round trip, so the
	// metrics invariant holds even if the provider fails mid-flight.
	s.updateMetrics(ctx, func(m *MetricsSnapshot) {
		m.TotalMessages++
		m.SentToAPI++
	})

	isSpam, err := s.classifier.Classify(ctx, msg.Content)
	if err != nil {
		if errors.Is(err, ErrRateLimited) {
			s.logger.Warn("Classifier rate limited, letting message through",
				zap.String("user_id", msg.UserID),
				zap.Error(err))
		} else {
			s.logger.Error("Classifier failed, letting message through",
				zap.String("user_id", msg.UserID),
				zap.Error(err))
		}
		return &ModerationResult{Verdict: VerdictConfirmedClean, Reason: reason}
	}
	if !isSpam {
		return &ModerationResult{Verdict: VerdictConfirmedClean, Reason: reason}
	}

	return s.punishConfirmed(ctx, msg, reason)
}

// Snapshot returns a copy of the current metrics.
func (s *ModerationService) Snapshot() MetricsSnapshot {
	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()
	return *s.metrics
}

// evaluateSafely runs the pre-filter and treats a panic inside it as
// not-suspicious. A bug in the filter must never block all traffic.
func (s *ModerationService) evaluateSafely(msg *Message) (suspicious bool, reason string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Pre-filter panicked, treating message as not suspicious",
				zap.Any("panic", r),
				zap.String("user_id", msg.UserID),
				zap.String("channel_id", msg.ChannelID))
			suspicious = false
			reason = "pre-filter fault"
		}
	}()
	return s.preFilter.Evaluate(msg)
}

// updateMetrics mutates and persists the snapshot as one critical section so
// the stored record always reflects a total ordering of completed messages.
func (s *ModerationService) updateMetrics(ctx context.Context, mutate func(*MetricsSnapshot)) {
	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()

	mutate(s.metrics)
	if err := s.store.Save(ctx, s.metrics); err != nil {
		// In-memory state stays authoritative until the next successful write.
		s.logger.Error("Failed to persist metrics", zap.Error(err))
	}
}

// punishRateLimited handles a user who tripped the volume threshold: punish
// immediately without spending a classifier call.
func (s *ModerationService) punishRateLimited(ctx context.Context, msg *Message, reason string) *ModerationResult {
	timeout := s.policy.RateLimitTimeout()
	s.logger.Info("Rate limit exceeded, punishing without classifier call",
		zap.String("user_id", msg.UserID),
		zap.String("username", msg.Username))

	s.recordAudit(msg, VerdictSuspiciousLocalPunish, 0)

	notice := fmt.Sprintf("you have been timed out for %d minutes for sending too many suspicious messages. Please slow down.",
		int(timeout.Minutes()))
	s.enforce(ctx, msg, timeout, "Spam rate limit exceeded", notice)

	s.tracker.ClearWindow(msg.UserID)
	s.updateMetrics(ctx, func(m *MetricsSnapshot) {
		m.TotalMessages++
		m.FilteredLocally++
	})

	return &ModerationResult{
		Verdict: VerdictSuspiciousLocalPunish,
		Reason:  reason,
		Timeout: timeout,
	}
}

// punishConfirmed handles a classifier-confirmed spam message with severity
// escalating per occurrence.
func (s *ModerationService) punishConfirmed(ctx context.Context, msg *Message, reason string) *ModerationResult {
	occurrence := s.tracker.RecordConfirmedSpam(msg.UserID)
	timeout := s.policy.TimeoutFor(occurrence)

	s.updateMetrics(ctx, func(m *MetricsSnapshot) {
		m.SpamDetected++
	})
	s.recordAudit(msg, VerdictConfirmedSpam, occurrence)

	var notice string
	if occurrence == 1 {
		notice = "your message was removed as spam. Further violations will lead to longer timeouts."
	} else {
		notice = fmt.Sprintf("your message was removed as spam and you have been timed out for %d minutes.",
			int(timeout.Minutes()))
	}
	s.enforce(ctx, msg, timeout, fmt.Sprintf("Spam detected (%d times)", occurrence), notice)

	snapshot := s.Snapshot()
	if snapshot.SpamDetected%10 == 0 {
		s.logger.Info("Usage metrics",
			zap.Int64("total_messages", snapshot.TotalMessages),
			zap.Int64("filtered_locally", snapshot.FilteredLocally),
			zap.Int64("sent_to_api", snapshot.SentToAPI),
			zap.Int64("spam_detected", snapshot.SpamDetected),
			zap.Float64("local_filter_rate", snapshot.LocalFilterRate()))
	}

	return &ModerationResult{
		Verdict:    VerdictConfirmedSpam,
		Reason:     reason,
		Occurrence: occurrence,
		Timeout:    timeout,
	}
}

// enforce applies delete + timeout + notice on the platform. A permission
// denial downgrades to a best-effort in-channel flag notice; nothing here
// aborts message handling.
func (s *ModerationService) enforce(ctx context.Context, msg *Message, timeout time.Duration, reason, notice string) {
	degraded := false

	if err := s.moderator.DeleteMessage(ctx, msg.ChannelID, msg.MessageID); err != nil {
		degraded = degraded || errors.Is(err, ErrInsufficientPermission)
		s.logPlatformError("delete message", msg, err)
	}
	if err := s.moderator.TimeoutUser(ctx, msg.GuildID, msg.UserID, timeout, reason); err != nil {
		degraded = degraded || errors.Is(err, ErrInsufficientPermission)
		s.logPlatformError("timeout user", msg, err)
	}

	if degraded {
		notice = "your message was flagged as spam."
	}
	if err := s.moderator.Notify(ctx, msg.ChannelID, notice, msg.UserID); err != nil {
		s.logPlatformError("send notice", msg, err)
	}
}

func (s *ModerationService) logPlatformError(action string, msg *Message, err error) {
	if errors.Is(err, ErrInsufficientPermission) {
		s.logger.Warn("Missing platform permission",
			zap.String("action", action),
			zap.String("user_id", msg.UserID),
			zap.Error(err))
		return
	}
	s.logger.Error("Platform action failed",
		zap.String("action", action),
		zap.String("user_id", msg.UserID),
		zap.Error(err))
}

func (s *ModerationService) recordAudit(msg *Message, verdict Verdict, occurrence int) {
	now := time.Now()
	memberAge, _ := msg.MemberAgeDays(now)
	s.audit.RecordAction(&AuditEntry{
		UserID:      msg.UserID,
		Username:    msg.Username,
		ChannelID:   msg.ChannelID,
		ChannelName: msg.ChannelName,
		AccountAge:  msg.AccountAgeDays(now),
		MemberAge:   memberAge,
		Content:     msg.Content,
		Verdict:     verdict,
		Occurrence:  occurrence,
		RecordedAt:  now,
	})
}
