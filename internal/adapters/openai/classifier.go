package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mikey/spam-sentry/internal/core"
	"github.com/mikey/spam-sentry/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	systemPrompt = "You are a spam detector for a community Discord server. " +
		"Respond with ONLY 'SPAM' or 'NOT_SPAM'. " +
		"Look for: scholarship scams, fake giveaways, phishing, suspicious offers, " +
		"emotional manipulation, urgency tactics, and 'DM me' solicitations."
	spamToken = "SPAM"
)

// Classifier is an implementation of the Classifier interface using OpenAI
type Classifier struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewClassifier creates a new OpenAI classifier
func NewClassifier(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *Classifier {
	return &Classifier{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Classify asks OpenAI for a verdict token on the message text. Provider
// throttling is surfaced as core.ErrRateLimited; anything the model emits
// other than the exact spam token is treated as not-spam.
func (c *Classifier) Classify(ctx context.Context, text string) (bool, error) {
	body := c.textProcessor.ProcessText(text, c.maxBodySize)

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Is this message spam?\n\nMessage: %s", body),
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return false, fmt.Errorf("openai throttled: %w", core.ErrRateLimited)
		}
		return false, fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return false, fmt.Errorf("empty response from OpenAI")
	}

	verdict := strings.ToUpper(strings.TrimSpace(resp.Choices[0].Message.Content))
	c.logger.Debug("Classifier verdict",
		zap.String("model", c.modelName),
		zap.String("verdict", verdict))

	return verdict == spamToken, nil
}
