package graph

import (
	"testing"

	"github.com/sandevgo/brotherbot/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeederFreshThread(t *testing.T) {
	t.Parallel()
	g := New(nil, WithClock(fixedClock(epoch)))
	s := NewSeeder(g, "be nice")

	require.NoError(t, g.Add(Node{ID: "42", Role: core.RoleUser, Content: "bob: hello", Timestamp: epoch}))

	chain, err := s.Ensure("42")
	require.NoError(t, err)
	assert.Equal(t, []core.Message{
		{Role: core.RoleSystem, Content: "be nice"},
		{Role: core.RoleUser, Content: "bob: hello"},
	}, chain)

	n, _ := g.Get("42")
	assert.Equal(t, "42_system", n.ParentID)

	sys, ok := g.Get(SystemID("42"))
	require.True(t, ok)
	assert.Empty(t, sys.ParentID)
	assert.Equal(t, epoch, sys.Timestamp)
}

func TestSeederIdempotent(t *testing.T) {
	t.Parallel()
	g := New(nil)
	s := NewSeeder(g, "persona")
	require.NoError(t, g.Add(Node{ID: "1", Role: core.RoleUser, Content: "hi", Timestamp: epoch}))

	first, err := s.Ensure("1")
	require.NoError(t, err)
	second, err := s.Ensure("1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, g.Len())
}

func TestSeederSkipsExistingThread(t *testing.T) {
	t.Parallel()
	g := New(nil)
	s := NewSeeder(g, "persona")
	require.NoError(t, g.Add(Node{ID: "a", Role: core.RoleAssistant, Content: "hey", Timestamp: epoch}))
	require.NoError(t, g.Add(Node{ID: "u", Role: core.RoleUser, Content: "yo", Timestamp: epoch, ParentID: "a"}))

	chain, err := s.Ensure("u")
	require.NoError(t, err)
	assert.Len(t, chain, 2)
	assert.False(t, g.Has(SystemID("u")))
}

func TestSeederSkipsSystemRoot(t *testing.T) {
	t.Parallel()
	g := New(nil)
	s := NewSeeder(g, "persona")
	require.NoError(t, g.Add(Node{ID: "p", Role: core.RoleSystem, Content: "talk like a pirate", Timestamp: epoch}))

	chain, err := s.Ensure("p")
	require.NoError(t, err)
	assert.Equal(t, []core.Message{{Role: core.RoleSystem, Content: "talk like a pirate"}}, chain)
	assert.Equal(t, 1, g.Len())
}

func TestSeederReplacesDanglingParent(t *testing.T) {
	t.Parallel()
	g := New(nil)
	s := NewSeeder(g, "persona")
	require.NoError(t, g.Add(Node{ID: "u", Role: core.RoleUser, Content: "yo", Timestamp: epoch, ParentID: "gone"}))

	chain, err := s.Ensure("u")
	require.NoError(t, err)
	assert.Len(t, chain, 2)

	n, _ := g.Get("u")
	assert.Equal(t, SystemID("u"), n.ParentID)
}

func TestSeederNotFound(t *testing.T) {
	t.Parallel()
	s := NewSeeder(New(nil), "persona")

	_, err := s.Ensure("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAttachRootRefusesAnchoredNode(t *testing.T) {
	t.Parallel()
	g := New(nil)
	require.NoError(t, g.Add(Node{ID: "root", Role: core.RoleSystem, Content: "r", Timestamp: epoch}))
	require.NoError(t, g.Add(Node{ID: "other", Role: core.RoleSystem, Content: "o", Timestamp: epoch}))
	require.NoError(t, g.Add(Node{ID: "u", Role: core.RoleUser, Content: "u", Timestamp: epoch, ParentID: "root"}))

	assert.Error(t, g.attachRoot("u", "other"))
	n, _ := g.Get("u")
	assert.Equal(t, "root", n.ParentID)
}
