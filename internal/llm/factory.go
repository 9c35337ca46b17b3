package llm

import (
	"context"
	"fmt"

	"freightlens/internal/config"
)

// New builds a client for the configured provider.
func New(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case "", "gemini":
		return NewGeminiClient(cfg), nil
	case "genai":
		return NewGenAIClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
