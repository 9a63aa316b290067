package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/brotherbot/pkg/log"
)

type SandboxConfig struct {
	DockerBin     string        `env:"SANDBOX_DOCKER_BIN" envDefault:"docker"`
	Image         string        `env:"SANDBOX_IMAGE" envDefault:"jupyter/scipy-notebook"`
	Timeout       time.Duration `env:"SANDBOX_TIMEOUT" envDefault:"5s"`
	Memory        string        `env:"SANDBOX_MEMORY" envDefault:"256m"`
	Network       string        `env:"SANDBOX_NETWORK" envDefault:"none"`
	MaxConcurrent int64         `env:"SANDBOX_MAX_CONCURRENT" envDefault:"2"`
	MaxOutput     int           `env:"SANDBOX_MAX_OUTPUT" envDefault:"65536"`
}

func NewSandboxConfig(ctx context.Context) *SandboxConfig {
	c := &SandboxConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Sandbox config")
	}
	return c
}
