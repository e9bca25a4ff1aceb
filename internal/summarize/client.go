package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/smmry-app/smmry-api/internal/config"
	"github.com/smmry-app/smmry-api/internal/metrics"
)

// Summarizer produces a summary for an admitted request. The admission
// flow treats it as a black box.
type Summarizer interface {
	Summarize(ctx context.Context, req Request) (string, error)
}

// ChatSummarizer calls an OpenAI-compatible chat-completions endpoint
// (DeepSeek by default).
type ChatSummarizer struct {
	client openai.Client
	model  string
}

func NewChatSummarizer(cfg config.SummarizerConfig) *ChatSummarizer {
	client := openai.NewClient(
		option.WithBaseURL(cfg.BaseURL),
		option.WithAPIKey(cfg.APIKey),
	)
	return &ChatSummarizer{client: client, model: cfg.Model}
}

func (s *ChatSummarizer) Summarize(ctx context.Context, req Request) (string, error) {
	start := time.Now()

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildPrompt(req)),
		},
	})
	metrics.SummarizerDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SummarizerRequestsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("calling chat completions: %w", err)
	}
	metrics.SummarizerRequestsTotal.WithLabelValues("ok").Inc()

	if len(resp.Choices) == 0 {
		return "", errors.New("no choices returned")
	}

	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return "", errors.New("empty summary returned")
	}

	// Models occasionally wrap the whole summary in quotes.
	if strings.HasPrefix(summary, `"`) && strings.HasSuffix(summary, `"`) && len(summary) > 1 {
		summary = summary[1 : len(summary)-1]
	}

	return summary, nil
}
