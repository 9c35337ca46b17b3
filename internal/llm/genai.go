package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"freightlens/internal/config"
)

// GenAIClient implements Client using the official Google GenAI SDK.
// Selected with provider "genai" in config.
type GenAIClient struct {
	client *genai.Client
	model  string
}

// NewGenAIClient creates an SDK-backed client.
func NewGenAIClient(ctx context.Context, cfg config.LLMConfig) (*GenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("genai: API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GenAIClient{client: client, model: model}, nil
}

// Generate sends one generation request through the SDK.
func (c *GenAIClient) Generate(ctx context.Context, req Request) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("genai generate: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("genai returned empty response")
	}
	return text, nil
}
