package logging

import (
	"fmt"

	"github.com/mikey/spam-sentry/internal/core"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FileAuditLogger appends one line per punitive action to a dedicated file
// for moderator review.
type FileAuditLogger struct {
	logger *zap.Logger
}

// NewFileAuditLogger creates an audit logger writing to the given path
func NewFileAuditLogger(path string, appLogger *zap.Logger) (*FileAuditLogger, error) {
	logConfig := zap.NewProductionConfig()
	logConfig.OutputPaths = []string{path}
	logConfig.ErrorOutputPaths = []string{"stderr"}
	logConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	logger, err := logConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log %s: %w", path, err)
	}

	appLogger.Info("Audit log opened", zap.String("path", path))
	return &FileAuditLogger{logger: logger}, nil
}

// RecordAction appends one audit line. Failures surface through zap's error
// output and never reach the pipeline.
func (l *FileAuditLogger) RecordAction(entry *core.AuditEntry) {
	l.logger.Info("SPAM ACTION",
		zap.String("verdict", entry.Verdict.String()),
		zap.String("user_id", entry.UserID),
		zap.String("username", entry.Username),
		zap.String("channel_id", entry.ChannelID),
		zap.String("channel_name", entry.ChannelName),
		zap.Int("account_age_days", entry.AccountAge),
		zap.Int("member_age_days", entry.MemberAge),
		zap.Int("occurrence", entry.Occurrence),
		zap.Time("recorded_at", entry.RecordedAt),
		zap.String("content", entry.Content))
}

// Sync flushes buffered audit lines.
func (l *FileAuditLogger) Sync() error {
	return l.logger.Sync()
}
