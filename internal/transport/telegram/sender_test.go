package telegram

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/sandevgo/brotherbot/internal/core"
	"github.com/sandevgo/brotherbot/internal/graph"
	"github.com/sandevgo/brotherbot/internal/service/bot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want int
	}{
		{"ascii", "hello", 5},
		{"cyrillic counts runes", strings.Repeat("ж", 4000), 4000},
		{"entities count once", strings.Repeat("a&", 2000), 4000},
		{"astral runes count twice", strings.Repeat("😀", 10), 20},
		{"markup counts in plain fallback", "**bold**", 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, messageSize(tt.text))
		})
	}
}

// recordingOutbound stands in for Bot: it measures like Bot and rejects
// any reply Bot could not deliver as one message.
type recordingOutbound struct {
	sends []string
}

func (r *recordingOutbound) Reply(_ context.Context, _, _, text string) (string, error) {
	if size, limit := (&Bot{}).MessageSize(text); size > limit {
		return "", fmt.Errorf("%w: %d", errTooLong, size)
	}
	r.sends = append(r.sends, text)
	return messageKey(1, len(r.sends)), nil
}

func (r *recordingOutbound) MessageSize(text string) (int, int) {
	return (&Bot{}).MessageSize(text)
}

func (r *recordingOutbound) Acknowledge(context.Context, string, string) error { return nil }

func (r *recordingOutbound) Typing(context.Context, string) {}

func TestChunkerOneTelegramMessagePerNode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		text  string
		sends int
	}{
		{"cyrillic at limit", strings.Repeat("ж", bot.DefaultChunkLimit), 1},
		{"ascii entities at limit", strings.Repeat("a&", bot.DefaultChunkLimit/2), 1},
		{"cyrillic over limit", strings.Repeat("ж", bot.DefaultChunkLimit+1), 2},
		{"astral runes", strings.Repeat("😀", bot.DefaultChunkLimit), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graph.New(nil)
			out := &recordingOutbound{}
			trigger := core.Inbound{ID: "1:100", ChannelID: "1"}

			require.NoError(t, bot.NewChunker(g, out, 0).Finalize(context.Background(), trigger, tt.text))

			require.Len(t, out.sends, tt.sends)
			assert.Equal(t, tt.sends, g.Len())
			assert.Equal(t, tt.text, strings.Join(out.sends, ""))

			parent := trigger.ID
			for i := range out.sends {
				n, ok := g.Get(messageKey(1, i+1))
				require.True(t, ok)
				assert.Equal(t, parent, n.ParentID)
				parent = n.ID
			}
		})
	}
}
