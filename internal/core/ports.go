package core

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrRateLimited is returned by a Classifier when the provider is
	// throttling requests. The pipeline fails open on it.
	ErrRateLimited = errors.New("classifier rate limited")
	// ErrInsufficientPermission is returned by a Moderator when the bot
	// lacks the authority to perform an action on the platform.
	ErrInsufficientPermission = errors.New("insufficient platform permission")
)

// SuspicionFilter defines the interface for the local pre-filter stage
type SuspicionFilter interface {
	// Evaluate decides whether a message is possibly spam, returning the
	// signal and a diagnostic reason.
	Evaluate(msg *Message) (bool, string)
}

// Classifier defines the interface for the external semantic spam classifier
type Classifier interface {
	// Classify returns true if the text is spam. Provider throttling is
	// reported as ErrRateLimited.
	Classify(ctx context.Context, text string) (bool, error)
}

// MetricsStore defines the interface for durable usage counters
type MetricsStore interface {
	// Load reads the persisted snapshot. A missing backing record yields
	// a zero-initialized snapshot with StartDate set to now.
	Load(ctx context.Context) (*MetricsSnapshot, error)

	// Save rewrites the persisted snapshot in full.
	Save(ctx context.Context, snapshot *MetricsSnapshot) error
}

// Moderator defines the enforcement actions available on the chat platform
type Moderator interface {
	// DeleteMessage removes a message from its channel.
	DeleteMessage(ctx context.Context, channelID, messageID string) error

	// TimeoutUser suspends a user from participating for the duration.
	TimeoutUser(ctx context.Context, guildID, userID string, duration time.Duration, reason string) error

	// Notify sends an in-channel notice, mentioning mentionUserID when
	// it is non-empty.
	Notify(ctx context.Context, channelID, text, mentionUserID string) error
}

// AuditLogger records punitive actions for moderator review
type AuditLogger interface {
	// RecordAction appends one audit line. Implementations must not fail
	// the pipeline; errors are logged and swallowed.
	RecordAction(entry *AuditEntry)
}
