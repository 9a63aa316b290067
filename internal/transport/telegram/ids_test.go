package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"
)

func TestMessageKeyRoundTrip(t *testing.T) {
	t.Parallel()

	key := messageKey(-1001234567890, 42)
	assert.Equal(t, "-1001234567890:42", key)

	chat, msg, err := parseMessageKey(key)
	require.NoError(t, err)
	assert.Equal(t, int64(-1001234567890), chat)
	assert.Equal(t, 42, msg)

	for _, bad := range []string{"", "42", "a:1", "1:b", "m1_system"} {
		_, _, err := parseMessageKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestStripMention(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, text, want string
		mentioned        bool
	}{
		{"no mention", "hello there", "hello there", false},
		{"leading", "@BrotherBot what's 2+2?", "what's 2+2?", true},
		{"case insensitive", "hey @brotherbot", "hey", true},
		{"only mention", "@BrotherBot", "", true},
		{"twice", "@BrotherBot hi @BrotherBot", "hi", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, mentioned := stripMention(tt.text, "BrotherBot")
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.mentioned, mentioned)
		})
	}

	got, mentioned := stripMention("@x hi", "")
	assert.Equal(t, "@x hi", got)
	assert.False(t, mentioned)
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Ada Lovelace", displayName(&tele.User{FirstName: "Ada", LastName: "Lovelace"}))
	assert.Equal(t, "ada", displayName(&tele.User{Username: "ada"}))
	assert.Equal(t, "7", displayName(&tele.User{ID: 7}))
	assert.Equal(t, "unknown", displayName(nil))
}

func TestAllowed(t *testing.T) {
	t.Parallel()

	assert.True(t, allowed(5, nil))
	assert.True(t, allowed(5, []int64{1, 5}))
	assert.False(t, allowed(6, []int64{1, 5}))
}

func TestSplitText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"short"}, splitText("short", 10))

	text := strings.Repeat("a", 8) + "\n" + strings.Repeat("b", 8)
	assert.Equal(t, []string{strings.Repeat("a", 8), strings.Repeat("b", 8)}, splitText(text, 10))

	for _, chunk := range splitText(strings.Repeat("ж", 10), 7) {
		assert.True(t, len(chunk) <= 7)
		assert.True(t, strings.Count(chunk, "ж")*2 == len(chunk), "chunk %q splits a rune", chunk)
	}
}

func TestReplyTarget(t *testing.T) {
	t.Parallel()

	chat, to, err := replyTarget("-100", "")
	require.NoError(t, err)
	assert.Equal(t, int64(-100), chat)
	assert.Nil(t, to)

	chat, to, err = replyTarget("-100", messageKey(-100, 7))
	require.NoError(t, err)
	assert.Equal(t, int64(-100), chat)
	require.NotNil(t, to)
	assert.Equal(t, 7, to.ID)

	_, _, err = replyTarget("x", "")
	assert.Error(t, err)
	_, _, err = replyTarget("-100", "m1")
	assert.Error(t, err)
}
