package cmd

import (
	"context"
	"fmt"

	"autonomous_spa_agent/config"
	"autonomous_spa_agent/generator"
	"autonomous_spa_agent/publisher"
)

func buildLLM(ctx context.Context, cfg config.BackendConfig) (generator.LLMClient, error) {
	settings := &generator.LLMSettings{
		Provider: cfg.Provider,
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.URL,
		Timeout:  cfg.Timeout(),
	}
	switch cfg.Provider {
	case "ollama":
		return generator.NewOllamaLLMFromConfig(settings)
	case "openai":
		return generator.NewOpenAILLMFromConfig(settings)
	case "deepseek":
		// DeepSeek speaks the OpenAI protocol but has no default endpoint in the SDK.
		if cfg.URL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires backend.url (OpenAI-compatible endpoint)")
		}
		return generator.NewOpenAILLMFromConfig(settings)
	case "anthropic":
		return generator.NewAnthropicLLMFromConfig(settings)
	case "gemini":
		return generator.NewGeminiLLMFromConfig(ctx, settings)
	case "mock":
		return generator.MockLLM{}, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.Provider)
	}
}

func buildMirror(cfg config.MirrorConfig) (publisher.Mirror, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	return publisher.NewS3Mirror(cfg)
}
