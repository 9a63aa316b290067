package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/brotherbot/pkg/log"
)

type LLMConfig struct {
	Provider string        `env:"LLM_PROVIDER" envDefault:"openai"`
	Model    string        `env:"LLM_MODEL,notEmpty" envDefault:"gpt-4o"`
	APIKey   string        `env:"LLM_API_KEY"`
	BaseURL  string        `env:"LLM_BASE_URL"`
	Timeout  time.Duration `env:"LLM_TIMEOUT" envDefault:"120s"`
}

func NewLLMConfig(ctx context.Context) *LLMConfig {
	c := &LLMConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse LLM config")
	}
	return c
}

func (c LLMConfig) GetModel() string {
	return c.Model
}

func (c LLMConfig) GetProvider() string {
	return c.Provider
}

func (c LLMConfig) GetAPIKey() string {
	return c.APIKey
}

func (c LLMConfig) GetBaseURL() string {
	return c.BaseURL
}

func (c LLMConfig) GetTimeout() time.Duration {
	return c.Timeout
}
