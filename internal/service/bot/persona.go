package bot

import (
	"context"
	_ "embed"
	"errors"
	"os"
	"strings"

	"github.com/sandevgo/brotherbot/internal/core"
	"github.com/sandevgo/brotherbot/pkg/log"
)

//go:embed persona.md
var defaultPersona string

// LoadPersona reads the persona file from config, falling back to the
// built-in persona when it is missing or empty.
func LoadPersona(ctx context.Context, cfg core.PersonaConfig) string {
	logger := log.FromCtx(ctx)
	path := cfg.GetPersonaPath()

	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Debug().Str("path", path).Msg("no persona file, using built-in persona")
	case err != nil:
		logger.Warn().Err(err).Str("path", path).Msg("failed to read persona file")
	case strings.TrimSpace(string(content)) != "":
		logger.Info().Str("path", path).Msg("loaded persona")
		return strings.TrimSpace(string(content))
	}
	return strings.TrimSpace(defaultPersona)
}

// DefaultPersona is the built-in persona the installer seeds PERSONA.md with.
func DefaultPersona() string {
	return strings.TrimSpace(defaultPersona)
}
