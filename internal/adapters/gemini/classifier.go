package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/spam-sentry/internal/core"
	"github.com/mikey/spam-sentry/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	systemPrompt = "You are a spam detector for a community Discord server. " +
		"Respond with ONLY 'SPAM' or 'NOT_SPAM'. " +
		"Look for: scholarship scams, fake giveaways, phishing, suspicious offers, " +
		"emotional manipulation, urgency tactics, and 'DM me' solicitations."
	spamToken = "SPAM"
)

// Classifier is an implementation of the Classifier interface using Google Gemini
type Classifier struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewClassifier creates a new Gemini classifier
func NewClassifier(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*Classifier, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	return &Classifier{
		client:        client,
		model:         model,
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

// Close closes the Gemini client
func (c *Classifier) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Classify asks Gemini for a verdict token on the message text
func (c *Classifier) Classify(ctx context.Context, text string) (bool, error) {
	body := c.textProcessor.ProcessText(text, c.maxBodySize)
	prompt := fmt.Sprintf("Is this message spam?\n\nMessage: %s", body)

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
			return false, fmt.Errorf("gemini throttled: %w", core.ErrRateLimited)
		}
		return false, fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return false, fmt.Errorf("empty response from Gemini")
	}

	verdict := strings.ToUpper(strings.TrimSpace(fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])))
	c.logger.Debug("Classifier verdict",
		zap.String("model", c.modelName),
		zap.String("verdict", verdict))

	return verdict == spamToken, nil
}
