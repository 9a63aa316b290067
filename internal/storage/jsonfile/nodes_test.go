package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sandevgo/brotherbot/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestNodeStoreMissingFile(t *testing.T) {
	t.Parallel()
	s := NewNodeStore(filepath.Join(t.TempDir(), "message_history.json"))

	nodes, err := s.LoadNodes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestNodeStoreRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "message_history.json")
	s := NewNodeStore(path)

	in := []core.StoredNode{
		{MessageID: "1", Role: "user", Content: strPtr("alice: hi"), Timestamp: 1700000000.25},
		{MessageID: "2", Role: "tool", Content: strPtr("4"), Timestamp: 1700000001.5, ParentID: strPtr("1"), ToolCall: strPtr("call_1")},
	}
	require.NoError(t, s.SaveNodes(ctx, in))

	out, err := s.LoadNodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestNodeStoreFormat(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "message_history.json")
	s := NewNodeStore(path)

	require.NoError(t, s.SaveNodes(context.Background(), []core.StoredNode{
		{MessageID: "1", Role: "user", Content: strPtr("hi"), Timestamp: 1700000000},
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	rec := raw["1"]
	require.NotNil(t, rec)
	assert.Equal(t, "1", rec["message_id"])
	assert.Equal(t, "user", rec["role"])
	assert.Equal(t, "hi", rec["content"])
	assert.Equal(t, float64(1700000000), rec["timestamp"])
	assert.Contains(t, rec, "parent_id")
	assert.Nil(t, rec["parent_id"])
	assert.Contains(t, rec, "tool_call")
	assert.Nil(t, rec["tool_call"])
}

func TestNodeStoreOverwrites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewNodeStore(filepath.Join(t.TempDir(), "history.json"))

	require.NoError(t, s.SaveNodes(ctx, []core.StoredNode{
		{MessageID: "a", Role: "user", Content: strPtr("a"), Timestamp: 1},
		{MessageID: "b", Role: "user", Content: strPtr("b"), Timestamp: 2},
	}))
	require.NoError(t, s.SaveNodes(ctx, []core.StoredNode{
		{MessageID: "c", Role: "user", Content: strPtr("c"), Timestamp: 3},
	}))

	out, err := s.LoadNodes(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "c", out[0].MessageID)
}

func TestNodeStoreKeyFallback(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"99": {"role": "user", "content": null, "timestamp": 5}}`), 0644))

	out, err := NewNodeStore(path).LoadNodes(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "99", out[0].MessageID)
	assert.Nil(t, out[0].Content)
}

func TestNodeStoreCorrupt(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0644))

	_, err := NewNodeStore(path).LoadNodes(context.Background())
	assert.Error(t, err)
}
