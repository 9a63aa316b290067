package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/brotherbot/pkg/log"
)

const (
	StoreJSON   = "json"
	StoreSQLite = "sqlite"
)

type AppConfig struct {
	RuntimePath string `env:"BOT_RUNTIME_PATH" envDefault:".brotherbot"`
	PersonaPath string `env:"BOT_PERSONA_PATH"`

	// Conversation graph
	Store         string        `env:"GRAPH_STORE" envDefault:"json"`
	LoadWindow    time.Duration `env:"GRAPH_LOAD_WINDOW" envDefault:"168h"`
	RetainWindow  time.Duration `env:"GRAPH_RETAIN_WINDOW" envDefault:"8736h"`
	SweepSchedule string        `env:"GRAPH_SWEEP_SCHEDULE" envDefault:"@daily"`

	// Reply shaping
	ChunkLimit  int `env:"BOT_CHUNK_LIMIT" envDefault:"4000"`
	PromptLimit int `env:"BOT_PROMPT_LIMIT" envDefault:"1000"`

	// Transport Flags
	EnableTelegram bool `env:"ENABLE_TELEGRAM" envDefault:"false"`
	EnableCLI      bool `env:"ENABLE_CLI" envDefault:"true"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	c.RuntimePath = resolveRuntimePath(c.RuntimePath)
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "brotherbot.db")
}

func (c AppConfig) GetGraphPath() string {
	return filepath.Join(c.RuntimePath, "message_history.json")
}

func (c AppConfig) GetPersonaPath() string {
	if c.PersonaPath != "" {
		return c.PersonaPath
	}
	return filepath.Join(c.RuntimePath, "PERSONA.md")
}

func (c AppConfig) GetLoadWindow() time.Duration {
	return c.LoadWindow
}

func (c AppConfig) GetRetainWindow() time.Duration {
	return c.RetainWindow
}

func (c AppConfig) IsTelegramSelected() bool {
	return c.EnableTelegram
}

func (c AppConfig) IsCLISelected() bool {
	return c.EnableCLI
}
