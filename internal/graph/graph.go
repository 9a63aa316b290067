package graph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sandevgo/brotherbot/internal/core"
	"github.com/sandevgo/brotherbot/pkg/log"
)

const (
	DefaultLoadWindow   = 7 * 24 * time.Hour
	DefaultRetainWindow = 52 * 7 * 24 * time.Hour
)

// Graph is the reply forest of every conversation the bot has seen.
// Nodes are owned by the graph; callers only ever get copies.
type Graph struct {
	mu    sync.RWMutex
	nodes map[string]*Node

	repo         core.NodeRepository
	loadWindow   time.Duration
	retainWindow time.Duration
	now          func() time.Time
}

type Option func(*Graph)

func WithClock(now func() time.Time) Option {
	return func(g *Graph) {
		g.now = now
	}
}

func WithRetention(cfg core.RetentionConfig) Option {
	return func(g *Graph) {
		if w := cfg.GetLoadWindow(); w > 0 {
			g.loadWindow = w
		}
		if w := cfg.GetRetainWindow(); w > 0 {
			g.retainWindow = w
		}
	}
}

// New creates an empty graph. A nil repo keeps the graph in memory only.
func New(repo core.NodeRepository, opts ...Option) *Graph {
	g := &Graph{
		nodes:        make(map[string]*Node),
		repo:         repo,
		loadWindow:   DefaultLoadWindow,
		retainWindow: DefaultRetainWindow,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Graph) Now() time.Time {
	return g.now()
}

// Add inserts the node, replacing any node with the same id.
func (g *Graph) Add(n Node) error {
	if err := n.validate(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[n.ID] = &n
	return nil
}

func (g *Graph) Get(id string) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

func (g *Graph) Has(id string) bool {
	_, ok := g.Get(id)
	return ok
}

// Role reports RoleNone and false for unknown ids.
func (g *Graph) Role(id string) (core.Role, bool) {
	n, ok := g.Get(id)
	if !ok {
		return core.RoleNone, false
	}
	return n.Role, true
}

func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Chain returns the conversation leading up to id, oldest first.
// The walk stops at an empty or dangling parent.
func (g *Graph) Chain(id string) ([]core.Message, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	cur, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	visited := make(map[string]struct{})
	var chain []core.Message
	for {
		if _, seen := visited[cur.ID]; seen {
			return nil, fmt.Errorf("%w: revisited %s", ErrCycle, cur.ID)
		}
		visited[cur.ID] = struct{}{}
		chain = append(chain, cur.message())

		if cur.ParentID == "" {
			break
		}
		parent, ok := g.nodes[cur.ParentID]
		if !ok {
			break
		}
		cur = parent
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// attachRoot points id at rootID. It is the only in-place mutation of a
// node and is refused once the node has a resolvable parent.
func (g *Graph) attachRoot(id, rootID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if _, ok := g.nodes[rootID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, rootID)
	}
	if n.ParentID != "" && n.ParentID != rootID {
		if _, ok := g.nodes[n.ParentID]; ok {
			return fmt.Errorf("node %s is already anchored to %s", id, n.ParentID)
		}
	}
	n.ParentID = rootID
	return nil
}

// Load replaces the graph with the persisted nodes younger than the load
// window. Records that fail validation are skipped.
func (g *Graph) Load(ctx context.Context) (int, error) {
	if g.repo == nil {
		return 0, nil
	}
	logger := log.FromCtx(ctx)

	stored, err := g.repo.LoadNodes(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load nodes: %w", err)
	}

	now := g.now()
	nodes := make(map[string]*Node, len(stored))
	var skipped, expired int
	for _, s := range stored {
		n, err := nodeFromStored(s)
		if err != nil {
			logger.Warn().Err(err).Msg("skipping invalid stored node")
			skipped++
			continue
		}
		if now.Sub(n.Timestamp) > g.loadWindow {
			expired++
			continue
		}
		nodes[n.ID] = &n
	}

	g.mu.Lock()
	g.nodes = nodes
	g.mu.Unlock()

	logger.Info().
		Int("loaded", len(nodes)).
		Int("expired", expired).
		Int("invalid", skipped).
		Msg("conversation graph loaded")
	return len(nodes), nil
}

// Save overwrites the store with the current state of the graph.
func (g *Graph) Save(ctx context.Context) error {
	if g.repo == nil {
		return nil
	}

	g.mu.RLock()
	snapshot := make([]core.StoredNode, 0, len(g.nodes))
	for _, n := range g.nodes {
		snapshot = append(snapshot, n.stored())
	}
	g.mu.RUnlock()

	if err := g.repo.SaveNodes(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to save nodes: %w", err)
	}
	log.FromCtx(ctx).Debug().Int("count", len(snapshot)).Msg("conversation graph saved")
	return nil
}

// Sweep evicts nodes older than the retention window and persists the
// result. It returns the number of evicted nodes.
func (g *Graph) Sweep(ctx context.Context) (int, error) {
	now := g.now()

	g.mu.Lock()
	var removed int
	for id, n := range g.nodes {
		if now.Sub(n.Timestamp) > g.retainWindow {
			delete(g.nodes, id)
			removed++
		}
	}
	g.mu.Unlock()

	log.FromCtx(ctx).Info().Int("removed", removed).Msg("retention sweep finished")
	return removed, g.Save(ctx)
}
