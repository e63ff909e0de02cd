package core

import (
	"time"
)

// Message represents a single inbound chat message. It lives for exactly one
// pipeline pass and is never persisted.
type Message struct {
	UserID           string
	Username         string
	GuildID          string
	ChannelID        string
	ChannelName      string
	MessageID        string
	Content          string
	AccountCreatedAt time.Time
	// JoinedAt is the time the author joined the server. The zero value
	// means the join time is unknown (webhooks, uncached members).
	JoinedAt       time.Time
	TrustRoleCount int
}

// AccountAgeDays returns the age of the author's account in whole days.
func (m *Message) AccountAgeDays(now time.Time) int {
	if m.AccountCreatedAt.IsZero() {
		return 0
	}
	return int(now.Sub(m.AccountCreatedAt).Hours() / 24)
}

// MemberAgeDays returns the author's server-membership age in whole days,
// and whether the join time is known at all.
func (m *Message) MemberAgeDays(now time.Time) (int, bool) {
	if m.JoinedAt.IsZero() {
		return 0, false
	}
	return int(now.Sub(m.JoinedAt).Hours() / 24), true
}

// Verdict is the outcome of a message's trip through the pipeline.
type Verdict int

const (
	// VerdictClear means the pre-filter saw nothing suspicious.
	VerdictClear Verdict = iota
	// VerdictSuspiciousLocalPunish means the author tripped the volume
	// rate limit and was punished without spending a classifier call.
	VerdictSuspiciousLocalPunish
	// VerdictSuspiciousEscalate means the message is on its way to the
	// semantic classifier.
	VerdictSuspiciousEscalate
	// VerdictConfirmedSpam means the classifier labeled the message spam.
	VerdictConfirmedSpam
	// VerdictConfirmedClean means the classifier cleared the message, or
	// the classifier was unavailable and the pipeline failed open.
	VerdictConfirmedClean
)

// String returns a human-readable name for the verdict.
func (v Verdict) String() string {
	switch v {
	case VerdictClear:
		return "clear"
	case VerdictSuspiciousLocalPunish:
		return "suspicious_local_punish"
	case VerdictSuspiciousEscalate:
		return "suspicious_escalate"
	case VerdictConfirmedSpam:
		return "confirmed_spam"
	case VerdictConfirmedClean:
		return "confirmed_clean"
	default:
		return "unknown"
	}
}

// ModerationResult describes what the pipeline decided for one message.
type ModerationResult struct {
	Verdict Verdict
	// Reason is the pre-filter's explanation for flagging the message.
	Reason string
	// Occurrence is the author's confirmed-spam count after this message,
	// set only when Verdict is VerdictConfirmedSpam.
	Occurrence int
	// Timeout is the punishment duration applied, zero if none.
	Timeout time.Duration
}

// MetricsSnapshot holds the durable usage counters. After every completed
// pipeline pass FilteredLocally + SentToAPI == TotalMessages.
type MetricsSnapshot struct {
	TotalMessages   int64     `json:"total_messages"`
	FilteredLocally int64     `json:"filtered_locally"`
	SentToAPI       int64     `json:"sent_to_api"`
	SpamDetected    int64     `json:"spam_detected"`
	StartDate       time.Time `json:"start_date"`
}

// LocalFilterRate returns the percentage of traffic that never reached the
// classifier, i.e. the API cost reduction.
func (s *MetricsSnapshot) LocalFilterRate() float64 {
	if s.TotalMessages == 0 {
		return 0
	}
	return float64(s.FilteredLocally) / float64(s.TotalMessages) * 100
}

// AuditEntry is one append-only record of a punitive action, kept for
// moderator review.
type AuditEntry struct {
	UserID      string
	Username    string
	ChannelID   string
	ChannelName string
	AccountAge  int
	MemberAge   int
	Content     string
	Verdict     Verdict
	Occurrence  int
	RecordedAt  time.Time
}
