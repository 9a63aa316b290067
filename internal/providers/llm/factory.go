package llm

import (
	"context"
	"fmt"

	"github.com/sandevgo/brotherbot/internal/core"
	"github.com/sandevgo/brotherbot/pkg/log"
)

const (
	openAIBaseURL     = "https://api.openai.com/v1"
	openRouterBaseURL = "https://openrouter.ai/api/v1"
	ollamaBaseURL     = "http://localhost:11434/v1"
	anthropicBaseURL  = "https://api.anthropic.com/v1/"
)

// NewProvider creates the appropriate AIProvider based on configuration.
// Every supported backend speaks the OpenAI chat completions dialect.
func NewProvider(ctx context.Context, cfg core.ProviderConfig) (core.AIProvider, error) {
	log.FromCtx(ctx).Info().
		Str("provider", cfg.GetProvider()).
		Str("model", cfg.GetModel()).
		Msg("starting llm provider")

	opts, err := clientConfig(cfg)
	if err != nil {
		return nil, err
	}
	return NewOpenAICompatible(opts), nil
}

// ListModels returns the model ids the configured backend advertises.
func ListModels(ctx context.Context, cfg core.ProviderConfig) ([]string, error) {
	opts, err := clientConfig(cfg)
	if err != nil {
		return nil, err
	}
	return NewOpenAICompatible(opts).Models(ctx)
}

func clientConfig(cfg core.ProviderConfig) (OpenAICompatibleConfig, error) {
	opts := OpenAICompatibleConfig{
		BaseURL: cfg.GetBaseURL(),
		APIKey:  cfg.GetAPIKey(),
		Model:   cfg.GetModel(),
		Timeout: cfg.GetTimeout(),
	}

	switch cfg.GetProvider() {
	case "openai":
		opts.BaseURL = orDefault(opts.BaseURL, openAIBaseURL)
	case "openrouter":
		opts.BaseURL = orDefault(opts.BaseURL, openRouterBaseURL)
		opts.ExtraHeaders = map[string]string{
			"HTTP-Referer": core.BotRepositoryURL,
			"X-Title":      core.BotName,
		}
	case "ollama":
		opts.BaseURL = orDefault(opts.BaseURL, ollamaBaseURL)
	case "anthropic":
		opts.BaseURL = orDefault(opts.BaseURL, anthropicBaseURL)
	case "custom":
		if opts.BaseURL == "" {
			return opts, fmt.Errorf("custom llm provider requires LLM_BASE_URL")
		}
	default:
		return opts, fmt.Errorf("unknown llm provider: %s", cfg.GetProvider())
	}
	return opts, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
