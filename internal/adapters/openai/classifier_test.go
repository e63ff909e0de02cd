package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/spam-sentry/internal/core"
	"github.com/mikey/spam-sentry/internal/utils"
)

func newTestClassifier(t *testing.T, handler http.HandlerFunc) *Classifier {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = server.URL + "/v1"
	client := openai.NewClientWithConfig(cfg)

	logger := zap.NewNop()
	return NewClassifier(client, "gpt-4o-mini", 10, 0.0, 1.0, 2000, logger, utils.NewTextProcessor(logger))
}

func completionResponse(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func TestClassifyNormalizesSpamToken(t *testing.T) {
	c := newTestClassifier(t, completionResponse(" spam \n"))

	isSpam, err := c.Classify(context.Background(), "free crypto, DM me now")
	require.NoError(t, err)
	assert.True(t, isSpam)
}

func TestClassifyNotSpamToken(t *testing.T) {
	c := newTestClassifier(t, completionResponse("NOT_SPAM"))

	isSpam, err := c.Classify(context.Background(), "anyone up for lunch?")
	require.NoError(t, err)
	assert.False(t, isSpam)
}

func TestClassifyUnexpectedProseMeansNotSpam(t *testing.T) {
	c := newTestClassifier(t, completionResponse("This message appears to be SPAM."))

	isSpam, err := c.Classify(context.Background(), "anything")
	require.NoError(t, err)
	assert.False(t, isSpam)
}

func TestClassifyThrottlingIsRateLimited(t *testing.T) {
	c := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit exceeded","type":"requests"}}`))
	})

	_, err := c.Classify(context.Background(), "anything")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrRateLimited))
}

func TestClassifyServerErrorIsNotRateLimited(t *testing.T) {
	c := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Classify(context.Background(), "anything")
	require.Error(t, err)
	assert.False(t, errors.Is(err, core.ErrRateLimited))
}
