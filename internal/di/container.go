package di

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/spam-sentry/internal/adapters/discord"
	"github.com/mikey/spam-sentry/internal/config"
	"github.com/mikey/spam-sentry/internal/core"
	"github.com/mikey/spam-sentry/internal/factory"
	"github.com/mikey/spam-sentry/internal/logging"
	"github.com/mikey/spam-sentry/internal/ports"
	"github.com/mikey/spam-sentry/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewMetricsFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register classifier
	if err := container.Provide(func(f *factory.LLMFactory) (core.Classifier, error) {
		return f.CreateClassifier()
	}); err != nil {
		return nil, err
	}

	// Register metrics store
	if err := container.Provide(func(f *factory.MetricsFactory) (core.MetricsStore, error) {
		return f.CreateMetricsStore()
	}); err != nil {
		return nil, err
	}

	// Register audit logger
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (core.AuditLogger, error) {
		return logging.NewFileAuditLogger(cfg.GetAudit().FilePath, logger)
	}); err != nil {
		return nil, err
	}

	// Register pre-filter
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.SuspicionFilter {
		spamCfg := cfg.GetSpam()
		return core.NewPreFilter(
			logger,
			spamCfg.MinContentLength,
			spamCfg.TrustedRoleCount,
			spamCfg.MinAccountAgeDays,
			spamCfg.MinMemberAgeDays,
		)
	}); err != nil {
		return nil, err
	}

	// Register abuse tracker
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *core.AbuseTracker {
		spamCfg := cfg.GetSpam()
		return core.NewAbuseTracker(logger, spamCfg.RateLimitWindow, spamCfg.RateLimitMax)
	}); err != nil {
		return nil, err
	}

	// Register punishment policy
	if err := container.Provide(func(cfg *config.Config) *core.PunishmentPolicy {
		return core.NewPunishmentPolicy(cfg.GetSpam().BaseTimeout)
	}); err != nil {
		return nil, err
	}

	// Register Discord session
	if err := container.Provide(func(cfg *config.Config) (*discordgo.Session, error) {
		discordCfg := cfg.GetDiscord()
		if discordCfg.Token == "" {
			return nil, fmt.Errorf("discord token is not configured")
		}
		return discordgo.New("Bot " + discordCfg.Token)
	}); err != nil {
		return nil, err
	}

	// Register moderator
	if err := container.Provide(func(session *discordgo.Session, logger *zap.Logger) core.Moderator {
		return discord.NewModerator(session, logger)
	}); err != nil {
		return nil, err
	}

	// Register moderation service
	if err := container.Provide(core.NewModerationService); err != nil {
		return nil, err
	}

	// Register chat service
	if err := container.Provide(func(
		session *discordgo.Session,
		service *core.ModerationService,
		logger *zap.Logger,
		cfg *config.Config,
	) ports.ChatService {
		return discord.NewBot(session, service, logger, cfg.GetDiscord().CommandPrefix)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
