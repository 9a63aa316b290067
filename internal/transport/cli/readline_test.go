package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReadLine() (*ReadLine, *bytes.Buffer) {
	var buf bytes.Buffer
	return &ReadLine{out: &buf, author: "ada"}, &buf
}

func TestReplyContinuesThread(t *testing.T) {
	t.Parallel()
	r, buf := newTestReadLine()
	ctx := context.Background()

	first := r.inbound("hello")
	assert.Empty(t, first.ReplyToID)
	assert.True(t, first.Direct)
	assert.Equal(t, "ada", first.AuthorName)
	assert.Equal(t, ChannelID, first.ChannelID)

	id, err := r.Reply(ctx, ChannelID, first.ID, "hi ada")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, "hi ada\n", buf.String())

	second := r.inbound("how are you")
	assert.Equal(t, id, second.ReplyToID)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestRespondKeepsThreadCursor(t *testing.T) {
	t.Parallel()
	r, buf := newTestReadLine()
	ctx := context.Background()

	id, err := r.Reply(ctx, ChannelID, "m1", "hi ada")
	require.NoError(t, err)
	require.NoError(t, r.Respond(ctx, ChannelID, "m2", "Timer set for ada at 12:00."))

	assert.Equal(t, "hi ada\nTimer set for ada at 12:00.\n", buf.String())
	assert.Equal(t, id, r.inbound("thanks").ReplyToID)
}

func TestAcknowledgeAnchorsThreadOnPrompt(t *testing.T) {
	t.Parallel()
	r, buf := newTestReadLine()

	require.NoError(t, r.Acknowledge(context.Background(), ChannelID, "prompt-1"))
	assert.Equal(t, "👍\n", buf.String())
	assert.Equal(t, "prompt-1", r.inbound("ahoy").ReplyToID)
}

func TestNotifyAndAnnounce(t *testing.T) {
	t.Parallel()
	r, buf := newTestReadLine()
	ctx := context.Background()

	require.NoError(t, r.Notify(ctx, ChannelID, authorID, "⏰: 'tea'"))
	require.NoError(t, r.Announce(ctx, ChannelID, "news"))
	assert.Equal(t, "\n@ada ⏰: 'tea'\n\nnews\n", buf.String())
}

func TestIsYes(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"y", "Y", " yes ", "👍"} {
		assert.True(t, isYes(in), in)
	}
	for _, in := range []string{"", "n", "no", "❌", "maybe"} {
		assert.False(t, isYes(in), in)
	}
}
