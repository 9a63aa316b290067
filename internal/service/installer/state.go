package installer

import (
	"fmt"
	"strings"

	"github.com/sandevgo/brotherbot/internal/config"
	"github.com/sandevgo/brotherbot/pkg/env"
)

const (
	channelTelegram = "Telegram"
	channelCLI      = "CLI"
)

// InstallState collects the answers of the wizard in the shape of the
// config structs the bot parses at startup.
type InstallState struct {
	App      config.AppConfig
	LLM      config.LLMConfig
	Telegram config.TelegramConfig

	Channel string
}

func NewInstallState() *InstallState {
	return &InstallState{}
}

// RenderEnv produces the .env content. Unset fields are left out so the
// defaults in the config structs still apply.
func (s *InstallState) RenderEnv() (string, error) {
	var b strings.Builder
	for _, section := range []any{&s.App, &s.LLM, &s.Telegram} {
		content, err := env.MarshalEnv(section)
		if err != nil {
			return "", fmt.Errorf("failed to render env: %w", err)
		}
		b.WriteString(content)
	}
	return b.String(), nil
}
