package articles

import (
	"context"
	"strings"

	"github.com/sandevgo/brotherbot/internal/core"
	"github.com/sandevgo/brotherbot/pkg/log"
)

// Poller is the cron job that announces new stories into one channel.
type Poller struct {
	checker   *Checker
	announcer core.Announcer
	channelID string
	header    string
}

func NewPoller(checker *Checker, announcer core.Announcer, channelID, header string) *Poller {
	return &Poller{
		checker:   checker,
		announcer: announcer,
		channelID: channelID,
		header:    header,
	}
}

func (p *Poller) Run(ctx context.Context) {
	logger := log.FromCtx(ctx)

	fresh, err := p.checker.Check(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("story check failed")
		return
	}
	if len(fresh) == 0 {
		logger.Debug().Msg("no new stories")
		return
	}

	for _, a := range fresh {
		logger.Info().Str("title", a.Title).Str("href", a.Href).Msg("new story")
	}

	if err := p.announcer.Announce(ctx, p.channelID, p.message(fresh)); err != nil {
		logger.Error().Err(err).Str("channel", p.channelID).Msg("failed to announce stories")
	}
}

func (p *Poller) message(fresh []Article) string {
	var sb strings.Builder
	sb.WriteString(p.header)
	for _, a := range fresh {
		sb.WriteString("\n")
		sb.WriteString(p.checker.Link(a))
	}
	return sb.String()
}
