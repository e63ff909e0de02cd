package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/mikey/spam-sentry/internal/core"
	"go.uber.org/zap"
)

// Bot is the Discord-facing surface: it receives message events, feeds them
// to the moderation pipeline, and answers the privileged metrics command.
type Bot struct {
	session *discordgo.Session
	service *core.ModerationService
	logger  *zap.Logger
	prefix  string
}

// NewBot creates a new Discord bot bound to the moderation pipeline
func NewBot(
	session *discordgo.Session,
	service *core.ModerationService,
	logger *zap.Logger,
	commandPrefix string,
) *Bot {
	bot := &Bot{
		session: session,
		service: service,
		logger:  logger,
		prefix:  commandPrefix,
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentMessageContent

	session.AddHandler(bot.onReady)
	session.AddHandler(bot.onMessageCreate)

	return bot
}

// Start opens the gateway connection
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	return nil
}

// Stop closes the gateway connection
func (b *Bot) Stop() error {
	if err := b.session.Close(); err != nil {
		return fmt.Errorf("failed to close Discord session: %w", err)
	}
	return nil
}

// onReady logs the identity and the current usage metrics on connect.
func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	snapshot := b.service.Snapshot()
	b.logger.Info("Logged in",
		zap.String("username", r.User.Username),
		zap.String("user_id", r.User.ID),
		zap.Int64("total_messages", snapshot.TotalMessages),
		zap.Int64("filtered_locally", snapshot.FilteredLocally),
		zap.Int64("sent_to_api", snapshot.SentToAPI),
		zap.Int64("spam_detected", snapshot.SpamDetected))
}

// onMessageCreate dispatches every inbound guild message to the pipeline.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID || m.Author.Bot {
		return
	}

	if m.Content == b.prefix+"metrics" {
		b.handleMetricsCommand(s, m)
		return
	}

	msg := b.buildMessage(s, m)
	result := b.service.HandleMessage(context.Background(), msg)

	b.logger.Debug("Message processed",
		zap.String("user_id", msg.UserID),
		zap.String("verdict", result.Verdict.String()),
		zap.String("reason", result.Reason))
}

// buildMessage converts a gateway event into the pipeline's message shape.
func (b *Bot) buildMessage(s *discordgo.Session, m *discordgo.MessageCreate) *core.Message {
	msg := &core.Message{
		UserID:    m.Author.ID,
		Username:  m.Author.Username,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		Content:   m.Content,
	}

	// Account creation time is embedded in the snowflake ID.
	if created, err := discordgo.SnowflakeTimestamp(m.Author.ID); err == nil {
		msg.AccountCreatedAt = created
	}

	// Webhooks and uncached members have no member payload; JoinedAt stays
	// zero and the pre-filter treats the membership as unknown.
	if m.Member != nil {
		msg.JoinedAt = m.Member.JoinedAt
		msg.TrustRoleCount = len(m.Member.Roles)
	}

	if channel, err := s.State.Channel(m.ChannelID); err == nil {
		msg.ChannelName = channel.Name
	}

	return msg
}

// handleMetricsCommand answers the admin-only metrics command with the
// current snapshot.
func (b *Bot) handleMetricsCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	perms, err := s.State.MessagePermissions(m.Message)
	if err != nil || perms&discordgo.PermissionAdministrator == 0 {
		b.logger.Debug("Metrics command denied",
			zap.String("user_id", m.Author.ID),
			zap.Error(err))
		return
	}

	snapshot := b.service.Snapshot()
	if snapshot.TotalMessages == 0 {
		if _, err := s.ChannelMessageSend(m.ChannelID, "No messages processed yet"); err != nil {
			b.logger.Error("Failed to send metrics reply", zap.Error(err))
		}
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:     "Spam Sentry Metrics",
		Color:     0x2ecc71,
		Timestamp: time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Total messages", Value: fmt.Sprintf("%d", snapshot.TotalMessages), Inline: true},
			{Name: "Filtered locally", Value: fmt.Sprintf("%d", snapshot.FilteredLocally), Inline: true},
			{Name: "API calls", Value: fmt.Sprintf("%d", snapshot.SentToAPI), Inline: true},
			{Name: "Spam detected", Value: fmt.Sprintf("%d", snapshot.SpamDetected), Inline: true},
			{Name: "API cost reduction", Value: fmt.Sprintf("%.1f%%", snapshot.LocalFilterRate()), Inline: true},
			{Name: "Tracking since", Value: snapshot.StartDate.Format("2006-01-02"), Inline: true},
		},
	}

	if _, err := s.ChannelMessageSendEmbed(m.ChannelID, embed); err != nil {
		b.logger.Error("Failed to send metrics embed", zap.Error(err))
	}
}
