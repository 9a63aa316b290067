package graph

import (
	"fmt"

	"github.com/sandevgo/brotherbot/internal/core"
)

// SystemID is the id of the persona node seeded under id.
func SystemID(id string) string {
	return id + "_system"
}

// Seeder anchors fresh threads to a system node carrying the persona.
type Seeder struct {
	graph   *Graph
	persona string
}

func NewSeeder(g *Graph, persona string) *Seeder {
	return &Seeder{graph: g, persona: persona}
}

// Ensure returns the chain for id, seeding a persona root first when id
// starts a new thread. Calling it again for the same id is a no-op.
func (s *Seeder) Ensure(id string) ([]core.Message, error) {
	chain, err := s.graph.Chain(id)
	if err != nil {
		return nil, err
	}
	if len(chain) != 1 || chain[0].Role == core.RoleSystem {
		return chain, nil
	}

	sysID := SystemID(id)
	err = s.graph.Add(Node{
		ID:        sysID,
		Role:      core.RoleSystem,
		Content:   s.persona,
		Timestamp: s.graph.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add persona node: %w", err)
	}
	if err := s.graph.attachRoot(id, sysID); err != nil {
		return nil, err
	}
	return s.graph.Chain(id)
}
