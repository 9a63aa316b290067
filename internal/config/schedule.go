package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/brotherbot/pkg/log"
)

type ArticlesConfig struct {
	Enabled   bool   `env:"ARTICLES_ENABLED" envDefault:"false"`
	URL       string `env:"ARTICLES_URL" envDefault:"https://magic.wizards.com/en/news/magic-story"`
	BaseURL   string `env:"ARTICLES_BASE_URL" envDefault:"https://magic.wizards.com"`
	Filter    string `env:"ARTICLES_FILTER" envDefault:"/en/news/magic-story/"`
	ChannelID string `env:"ARTICLES_CHANNEL_ID"`
	Schedule  string `env:"ARTICLES_SCHEDULE" envDefault:"@every 30m"`
	Header    string `env:"ARTICLES_HEADER" envDefault:"New Magic Story articles found:"`
}

func NewArticlesConfig(ctx context.Context) *ArticlesConfig {
	c := &ArticlesConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Articles config")
	}
	return c
}

func (c ArticlesConfig) GetSeenPath(runtimePath string) string {
	return filepath.Join(runtimePath, "seen_articles.txt")
}

type TimersConfig struct {
	Schedule string        `env:"TIMERS_SCHEDULE" envDefault:"@every 5s"`
	MinLead  time.Duration `env:"TIMERS_MIN_LEAD" envDefault:"1m"`
}

func NewTimersConfig(ctx context.Context) *TimersConfig {
	c := &TimersConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Timers config")
	}
	return c
}

func (c TimersConfig) GetStorePath(runtimePath string) string {
	return filepath.Join(runtimePath, "timers.json")
}
