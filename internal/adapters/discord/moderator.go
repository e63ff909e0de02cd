package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/mikey/spam-sentry/internal/core"
	"go.uber.org/zap"
)

// Moderator implements the core.Moderator interface on top of a Discord
// session. A 403 from the REST API is normalized to
// core.ErrInsufficientPermission so the pipeline can fall back to a notice.
type Moderator struct {
	session *discordgo.Session
	logger  *zap.Logger
}

// NewModerator creates a new Discord moderator
func NewModerator(session *discordgo.Session, logger *zap.Logger) *Moderator {
	return &Moderator{
		session: session,
		logger:  logger,
	}
}

// DeleteMessage removes a message from its channel
func (m *Moderator) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	if err := m.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)); err != nil {
		return normalizeRESTError("delete message", err)
	}

	m.logger.Debug("Message deleted",
		zap.String("channel_id", channelID),
		zap.String("message_id", messageID))
	return nil
}

// TimeoutUser suspends a user from participating for the duration
func (m *Moderator) TimeoutUser(ctx context.Context, guildID, userID string, duration time.Duration, reason string) error {
	until := time.Now().Add(duration)
	err := m.session.GuildMemberTimeout(guildID, userID, &until,
		discordgo.WithContext(ctx),
		discordgo.WithAuditLogReason(reason))
	if err != nil {
		return normalizeRESTError("timeout user", err)
	}

	m.logger.Info("User timed out",
		zap.String("guild_id", guildID),
		zap.String("user_id", userID),
		zap.Duration("duration", duration),
		zap.String("reason", reason))
	return nil
}

// Notify sends an in-channel notice, mentioning the user when requested
func (m *Moderator) Notify(ctx context.Context, channelID, text, mentionUserID string) error {
	content := text
	if mentionUserID != "" {
		content = fmt.Sprintf("<@%s> %s", mentionUserID, text)
	}

	if _, err := m.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx)); err != nil {
		return normalizeRESTError("send notice", err)
	}
	return nil
}

// normalizeRESTError maps a Discord 403 to the core permission sentinel.
func normalizeRESTError(op string, err error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%s: %w", op, core.ErrInsufficientPermission)
	}
	return fmt.Errorf("%s: %w", op, err)
}
