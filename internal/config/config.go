// Package config loads the freightlens YAML configuration with environment
// variable overrides for secrets.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"freightlens/internal/logging"
)

// Config is the root configuration.
type Config struct {
	LLM     LLMConfig      `yaml:"llm"`
	Store   StoreConfig    `yaml:"store"`
	Logging logging.Config `yaml:"logging"`
	Limits  LimitsConfig   `yaml:"limits"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		LLM:    DefaultLLMConfig(),
		Store:  DefaultStoreConfig(),
		Limits: DefaultLimitsConfig(),
		Logging: logging.Config{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the config file at path, falling back to defaults when the
// file does not exist. Environment overrides are applied last.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overlays environment variables onto the loaded config.
// Secrets should come from the environment, not the file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("FREIGHTLENS_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("FREIGHTLENS_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("FREIGHTLENS_DB"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("FREIGHTLENS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
