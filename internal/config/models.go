package config

import "time"

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
}

// DiscordConfig represents the configuration for the Discord connection
type DiscordConfig struct {
	Token         string
	CommandPrefix string
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// SpamConfig represents the heuristic and escalation thresholds
type SpamConfig struct {
	MinContentLength  int
	TrustedRoleCount  int
	MinAccountAgeDays int
	MinMemberAgeDays  int
	RateLimitMax      int
	RateLimitWindow   time.Duration
	BaseTimeout       time.Duration
}

// MetricsConfig represents the configuration for the metrics store
type MetricsConfig struct {
	Type       string
	FilePath   string
	SQLitePath string
	MySQLDSN   string
}

// AuditConfig represents the configuration for the audit log
type AuditConfig struct {
	FilePath string
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetDiscord returns the Discord configuration
func (c *Config) GetDiscord() DiscordConfig {
	return DiscordConfig{
		Token:         c.GetString("discord.token"),
		CommandPrefix: c.GetString("discord.command_prefix"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetSpam returns the spam heuristics configuration. Malformed durations fall
// back to the documented defaults.
func (c *Config) GetSpam() SpamConfig {
	window, err := c.GetDuration("spam.rate_limit_window")
	if err != nil {
		window = 60 * time.Second
	}
	baseTimeout, err := c.GetDuration("spam.base_timeout")
	if err != nil {
		baseTimeout = 10 * time.Minute
	}

	return SpamConfig{
		MinContentLength:  c.GetInt("spam.min_content_length"),
		TrustedRoleCount:  c.GetInt("spam.trusted_role_count"),
		MinAccountAgeDays: c.GetInt("spam.min_account_age_days"),
		MinMemberAgeDays:  c.GetInt("spam.min_member_age_days"),
		RateLimitMax:      c.GetInt("spam.rate_limit_max"),
		RateLimitWindow:   window,
		BaseTimeout:       baseTimeout,
	}
}

// GetMetrics returns the metrics store configuration
func (c *Config) GetMetrics() MetricsConfig {
	return MetricsConfig{
		Type:       c.GetString("metrics.type"),
		FilePath:   c.GetString("metrics.file_path"),
		SQLitePath: c.GetString("metrics.sqlite_path"),
		MySQLDSN:   c.GetString("metrics.mysql_dsn"),
	}
}

// GetAudit returns the audit log configuration
func (c *Config) GetAudit() AuditConfig {
	return AuditConfig{
		FilePath: c.GetString("audit.file_path"),
	}
}
