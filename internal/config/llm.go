package config

import "time"

// LLMConfig configures the text-generation collaborator.
type LLMConfig struct {
	Provider string `yaml:"provider"` // gemini (raw HTTP) or genai (SDK)
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`

	// Timeout bounds each generation call. Both translator and validator
	// calls go through this client.
	Timeout time.Duration `yaml:"timeout"`

	// MaxOutputTokens caps response size for every contract; structured
	// extraction needs far less than this.
	MaxOutputTokens int `yaml:"max_output_tokens"`
}

// DefaultLLMConfig returns sensible defaults.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider:        "gemini",
		Model:           "gemini-2.0-flash",
		BaseURL:         "https://generativelanguage.googleapis.com/v1beta",
		Timeout:         60 * time.Second,
		MaxOutputTokens: 4096,
	}
}
