package core

import (
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// linkPattern matches http(s) links, server invite links and messaging-app
// deep links.
var linkPattern = regexp.MustCompile(`(?i)(https?://\S+|discord\.gg/\S+|t\.me/\S+)`)

// scamPatterns are word-boundary keyword checks for common scam phrasing.
// Substrings inside unrelated words must not match ("dm" in "admin").
var scamPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bdm\b`),
	regexp.MustCompile(`(?i)\bgiv(e|ing)\s+out\b`),
	regexp.MustCompile(`(?i)\bfree\b`),
	regexp.MustCompile(`(?i)\bgiveaway\b`),
	regexp.MustCompile(`(?i)\bloan\b`),
	regexp.MustCompile(`(?i)\bgrant\b`),
	regexp.MustCompile(`(?i)\bcashapp\b`),
	regexp.MustCompile(`(?i)\bvenmo\b`),
	regexp.MustCompile(`(?i)\bcrypto\b`),
	regexp.MustCompile(`(?i)\bairdrop\b`),
	regexp.MustCompile(`(?i)\binvestment\b`),
	regexp.MustCompile(`(?i)\bquick\s+money\b`),
	regexp.MustCompile(`(?i)\bperfect\s+condition\b`),
	regexp.MustCompile(`(?i)\blimited\s+time\b`),
	regexp.MustCompile(`(?i)\burgent\b`),
	regexp.MustCompile(`(?i)\bfirst\s+come\s+first\s+serve\b`),
}

// PreFilter is the deterministic, local-only first stage of the pipeline.
// It decides whether a message is worth an external classifier call using
// structural and account-trust signals, with no network access.
type PreFilter struct {
	logger           *zap.Logger
	minContentLength int
	trustedRoleCount int
	minAccountAge    time.Duration
	minMemberAge     time.Duration
	now              func() time.Time
}

// NewPreFilter creates a new heuristic pre-filter
func NewPreFilter(
	logger *zap.Logger,
	minContentLength int,
	trustedRoleCount int,
	minAccountAgeDays int,
	minMemberAgeDays int,
) *PreFilter {
	return &PreFilter{
		logger:           logger,
		minContentLength: minContentLength,
		trustedRoleCount: trustedRoleCount,
		minAccountAge:    time.Duration(minAccountAgeDays) * 24 * time.Hour,
		minMemberAge:     time.Duration(minMemberAgeDays) * 24 * time.Hour,
		now:              time.Now,
	}
}

// Evaluate decides whether a message is possibly spam. It is pure apart from
// diagnostic logging; the first matching rule wins.
func (f *PreFilter) Evaluate(msg *Message) (bool, string) {
	content := strings.TrimSpace(msg.Content)
	now := f.now()

	// Short messages are ordinary conversation, too short to carry a scam.
	if len(content) < f.minContentLength {
		return false, "content below minimum length"
	}

	if strings.Contains(content, "@everyone") || strings.Contains(content, "@here") {
		if msg.TrustRoleCount > f.trustedRoleCount {
			f.logger.Debug("Mass mention from trusted author, treating as announcement",
				zap.String("user_id", msg.UserID),
				zap.Int("trust_roles", msg.TrustRoleCount))
			return false, "mass mention from trusted author"
		}
		return true, "mass mention from untrusted author"
	}

	if linkPattern.MatchString(content) {
		return true, "contains link"
	}

	if !msg.AccountCreatedAt.IsZero() && now.Sub(msg.AccountCreatedAt) < f.minAccountAge {
		return true, "new account"
	}

	// An unknown join time counts as suspicious: actors without a resolvable
	// membership (webhooks, uncached members) get no new-member exemption.
	if msg.JoinedAt.IsZero() {
		return true, "unknown membership"
	}
	if now.Sub(msg.JoinedAt) < f.minMemberAge {
		return true, "new member"
	}

	for _, pattern := range scamPatterns {
		if pattern.MatchString(content) {
			return true, "scam keyword: " + pattern.String()
		}
	}

	return false, "no suspicion found"
}
