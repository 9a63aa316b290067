package bot

import (
	"context"
	"strings"

	"github.com/sandevgo/brotherbot/internal/core"
	"github.com/sandevgo/brotherbot/internal/graph"
	"github.com/sandevgo/brotherbot/pkg/log"
)

const (
	promptPrefix       = "prompt:"
	DefaultPromptLimit = 1000

	msgLostInVoid  = "Your message was lost in the void. Please try again."
	msgEmptyPrompt = "Please provide a non-empty prompt."
)

type Options struct {
	PromptLimit int
}

// Bot turns inbound chat messages into graph nodes, asks the model for the
// next turn and routes the answer back out.
type Bot struct {
	graph   *graph.Graph
	seeder  *graph.Seeder
	ai      core.AIProvider
	out     core.Outbound
	router  *Router
	chunker *Chunker
	opts    Options
}

func New(
	g *graph.Graph,
	seeder *graph.Seeder,
	ai core.AIProvider,
	out core.Outbound,
	router *Router,
	chunker *Chunker,
	opts Options,
) *Bot {
	if opts.PromptLimit <= 0 {
		opts.PromptLimit = DefaultPromptLimit
	}
	return &Bot{
		graph:   g,
		seeder:  seeder,
		ai:      ai,
		out:     out,
		router:  router,
		chunker: chunker,
		opts:    opts,
	}
}

func (b *Bot) HandleInbound(ctx context.Context, in core.Inbound) {
	logger := log.FromCtx(ctx).With().
		Str("message", in.ID).
		Str("channel", in.ChannelID).
		Logger()
	ctx = logger.WithContext(ctx)

	if in.FromSelf {
		return
	}

	if in.Content == "" && in.Mentioned {
		b.reply(ctx, in, msgLostInVoid)
		return
	}

	if strings.HasPrefix(in.Content, promptPrefix) {
		b.handlePrompt(ctx, in)
		return
	}

	var parent string
	if in.ReplyToID != "" && b.graph.Has(in.ReplyToID) {
		parent = in.ReplyToID
	}

	if !in.Mentioned && parent == "" && !in.Direct {
		return
	}

	// replies between users are not addressed to the bot
	if role, ok := b.graph.Role(parent); ok && role == core.RoleUser {
		logger.Debug().Str("parent", parent).Msg("ignoring reply to a user message")
		return
	}

	err := b.graph.Add(graph.Node{
		ID:        in.ID,
		Role:      core.RoleUser,
		Content:   in.AuthorName + ": " + in.Content,
		Timestamp: b.graph.Now(),
		ParentID:  parent,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to record user message")
		return
	}
	defer b.persist(ctx)

	b.out.Typing(ctx, in.ChannelID)

	chain, err := b.seeder.Ensure(in.ID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to build conversation chain")
		b.reply(ctx, in, "Error: "+err.Error())
		return
	}
	logger.Debug().Int("chain", len(chain)).Msg("conversation chain built")

	resp, err := b.ai.Chat(ctx, chain, Tools)
	if err != nil {
		logger.Error().Err(err).Msg("model call failed")
		b.recordError(ctx, in, err)
		return
	}

	if len(resp.ToolCalls) > 0 {
		b.router.Dispatch(ctx, in, resp.ToolCalls)
		return
	}

	if err := b.chunker.Finalize(ctx, in, resp.Content); err != nil {
		logger.Error().Err(err).Msg("failed to deliver reply")
	}
}

// handlePrompt stores a custom system prompt at the message so replies to it
// run under that prompt instead of the persona.
func (b *Bot) handlePrompt(ctx context.Context, in core.Inbound) {
	logger := log.FromCtx(ctx)

	prompt := strings.TrimSpace(strings.TrimPrefix(in.Content, promptPrefix))
	if prompt == "" {
		b.reply(ctx, in, msgEmptyPrompt)
		return
	}
	if r := []rune(prompt); len(r) > b.opts.PromptLimit {
		prompt = string(r[:b.opts.PromptLimit])
	}

	err := b.graph.Add(graph.Node{
		ID:        in.ID,
		Role:      core.RoleSystem,
		Content:   prompt,
		Timestamp: b.graph.Now(),
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to record custom prompt")
		return
	}
	b.persist(ctx)

	if err := b.out.Acknowledge(ctx, in.ChannelID, in.ID); err != nil {
		logger.Error().Err(err).Msg("failed to acknowledge prompt")
	}
}

// recordError replies with the failure and keeps it in the graph so the
// user can reply to the error and carry on.
func (b *Bot) recordError(ctx context.Context, in core.Inbound, cause error) {
	id := b.reply(ctx, in, "Error: "+cause.Error())
	if id == "" {
		return
	}
	err := b.graph.Add(graph.Node{
		ID:        id,
		Role:      core.RoleSystem,
		Content:   cause.Error(),
		Timestamp: b.graph.Now(),
		ParentID:  in.ID,
	})
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("failed to record error node")
	}
}

func (b *Bot) reply(ctx context.Context, in core.Inbound, text string) string {
	id, err := b.out.Reply(ctx, in.ChannelID, in.ID, text)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("failed to send reply")
		return ""
	}
	return id
}

func (b *Bot) persist(ctx context.Context) {
	if err := b.graph.Save(ctx); err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("failed to persist conversation graph")
	}
}
