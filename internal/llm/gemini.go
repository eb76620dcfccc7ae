package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/contractintel/backend/internal/metrics"
	"github.com/contractintel/backend/pkg/logger"
)

// GeminiProvider talks to the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	logger.Info("Gemini provider initialized", zap.String("model", model))

	return &GeminiProvider{
		client: client,
		model:  model,
	}, nil
}

func (p *GeminiProvider) Name() string {
	return "gemini"
}

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(req.Prompt), p.generateConfig(req))
	if err != nil {
		metrics.ProviderCalls.WithLabelValues(p.Name(), "error").Inc()
		return "", fmt.Errorf("gemini completion failed: %w", err)
	}

	metrics.ProviderCalls.WithLabelValues(p.Name(), "ok").Inc()

	return strings.TrimSpace(resp.Text()), nil
}

func (p *GeminiProvider) GenerateStream(ctx context.Context, req Request) (<-chan StreamChunk, error) {
	out := make(chan StreamChunk)

	go func() {
		defer close(out)

		for resp, err := range p.client.Models.GenerateContentStream(ctx, p.model, genai.Text(req.Prompt), p.generateConfig(req)) {
			if err != nil {
				metrics.ProviderCalls.WithLabelValues(p.Name(), "error").Inc()
				out <- StreamChunk{Err: fmt.Errorf("gemini stream failed: %w", err)}
				return
			}
			if text := resp.Text(); text != "" {
				out <- StreamChunk{Text: text}
			}
		}

		metrics.ProviderCalls.WithLabelValues(p.Name(), "ok").Inc()
	}()

	return out, nil
}

func (p *GeminiProvider) generateConfig(req Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.Temperature != 0 {
		cfg.Temperature = genai.Ptr(req.Temperature)
	}
	if req.MaxTokens != 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	return cfg
}
