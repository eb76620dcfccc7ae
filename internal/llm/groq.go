package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/contractintel/backend/internal/metrics"
	"github.com/contractintel/backend/pkg/logger"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// GroqProvider talks to Groq through its OpenAI-compatible API.
type GroqProvider struct {
	client *openai.Client
	model  string
}

func NewGroqProvider(apiKey, model string) (*GroqProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("groq api key is required")
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = groqBaseURL

	logger.Info("Groq provider initialized", zap.String("model", model))

	return &GroqProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

func (p *GroqProvider) Name() string {
	return "groq"
}

func (p *GroqProvider) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, p.completionRequest(req, false))
	if err != nil {
		metrics.ProviderCalls.WithLabelValues(p.Name(), "error").Inc()
		return "", fmt.Errorf("groq completion failed: %w", err)
	}

	metrics.ProviderCalls.WithLabelValues(p.Name(), "ok").Inc()
	logger.Debug("Groq completion generated",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (p *GroqProvider) GenerateStream(ctx context.Context, req Request) (<-chan StreamChunk, error) {
	stream, err := p.client.CreateChatCompletionStream(ctx, p.completionRequest(req, true))
	if err != nil {
		metrics.ProviderCalls.WithLabelValues(p.Name(), "error").Inc()
		return nil, fmt.Errorf("groq stream failed: %w", err)
	}

	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				metrics.ProviderCalls.WithLabelValues(p.Name(), "ok").Inc()
				return
			}
			if err != nil {
				metrics.ProviderCalls.WithLabelValues(p.Name(), "error").Inc()
				out <- StreamChunk{Err: fmt.Errorf("groq stream failed: %w", err)}
				return
			}
			if len(resp.Choices) > 0 && resp.Choices[0].Delta.Content != "" {
				out <- StreamChunk{Text: resp.Choices[0].Delta.Content}
			}
		}
	}()

	return out, nil
}

func (p *GroqProvider) completionRequest(req Request, stream bool) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Prompt,
			},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      stream,
	}
}
