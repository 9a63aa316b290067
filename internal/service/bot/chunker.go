package bot

import (
	"context"
	"fmt"
	"sort"

	"github.com/sandevgo/brotherbot/internal/core"
	"github.com/sandevgo/brotherbot/internal/graph"
	"github.com/sandevgo/brotherbot/pkg/log"
)

const DefaultChunkLimit = 4000

// Chunker sends a model reply in platform-sized pieces, each one replying to
// the previous, and threads them into the graph the same way. Every piece
// is a single platform message: when out is a core.MessageSizer a piece is
// also shrunk until the platform accepts it whole.
type Chunker struct {
	graph *graph.Graph
	out   core.Outbound
	limit int
	fits  func(string) bool
}

func NewChunker(g *graph.Graph, out core.Outbound, limit int) *Chunker {
	if limit <= 0 {
		limit = DefaultChunkLimit
	}
	c := &Chunker{graph: g, out: out, limit: limit}
	if s, ok := out.(core.MessageSizer); ok {
		c.fits = func(text string) bool {
			size, ceiling := s.MessageSize(text)
			return size <= ceiling
		}
	}
	return c
}

func (c *Chunker) Finalize(ctx context.Context, trigger core.Inbound, text string) error {
	if text == "" {
		log.FromCtx(ctx).Warn().Str("message", trigger.ID).Msg("model returned an empty reply")
		return nil
	}

	parent := trigger.ID
	for _, part := range split(text, c.limit, c.fits) {
		id, err := c.out.Reply(ctx, trigger.ChannelID, parent, part)
		if err != nil {
			return fmt.Errorf("failed to send reply: %w", err)
		}
		err = c.graph.Add(graph.Node{
			ID:        id,
			Role:      core.RoleAssistant,
			Content:   part,
			Timestamp: c.graph.Now(),
			ParentID:  parent,
		})
		if err != nil {
			return err
		}
		parent = id
	}
	return nil
}

// split cuts text into runs of limit runes; only the last may be shorter.
// With fits set, a run the platform would not take in one message is cut
// back to the longest prefix it does take.
func split(text string, limit int, fits func(string) bool) []string {
	r := []rune(text)
	if len(r) <= limit && (fits == nil || fits(text)) {
		return []string{text}
	}

	parts := make([]string, 0, (len(r)+limit-1)/limit)
	for len(r) > 0 {
		n := min(limit, len(r))
		if fits != nil && !fits(string(r[:n])) {
			n = max(sort.Search(n, func(i int) bool { return !fits(string(r[:i+1])) }), 1)
			for n > 1 && !fits(string(r[:n])) {
				n--
			}
		}
		parts = append(parts, string(r[:n]))
		r = r[n:]
	}
	return parts
}
