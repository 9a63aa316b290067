package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"sync"

	"github.com/sandevgo/brotherbot/internal/core"
	"github.com/sandevgo/brotherbot/pkg/fsutil"
	"github.com/sandevgo/brotherbot/pkg/log"
)

// NodeStore keeps the conversation graph in a single JSON object keyed by
// message id.
type NodeStore struct {
	path string
	mu   sync.Mutex
}

func NewNodeStore(path string) *NodeStore {
	return &NodeStore{path: path}
}

func (s *NodeStore) LoadNodes(ctx context.Context) ([]core.StoredNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		log.FromCtx(ctx).Debug().Str("path", s.path).Msg("no message history yet")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var records map[string]core.StoredNode
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}

	nodes := make([]core.StoredNode, 0, len(records))
	for _, id := range slices.Sorted(maps.Keys(records)) {
		rec := records[id]
		if rec.MessageID == "" {
			rec.MessageID = id
		}
		nodes = append(nodes, rec)
	}
	return nodes, nil
}

func (s *NodeStore) SaveNodes(ctx context.Context, nodes []core.StoredNode) error {
	records := make(map[string]core.StoredNode, len(nodes))
	for _, n := range nodes {
		records[n.MessageID] = n
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode nodes: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return fsutil.WriteFileAtomic(s.path, data, 0644)
}
