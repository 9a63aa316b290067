package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sandevgo/brotherbot/internal/core"
	"github.com/sandevgo/brotherbot/pkg/log"
)

type NodesRepo struct {
	db *sql.DB
}

func NewNodesRepo(db *sql.DB) *NodesRepo {
	return &NodesRepo{db: db}
}

func (r *NodesRepo) LoadNodes(ctx context.Context) ([]core.StoredNode, error) {
	query := `SELECT message_id, role, content, timestamp, parent_id, tool_call FROM message_nodes ORDER BY timestamp`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	var nodes []core.StoredNode
	for rows.Next() {
		var n core.StoredNode
		var content, parentID, toolCall sql.NullString

		if err := rows.Scan(&n.MessageID, &n.Role, &content, &n.Timestamp, &parentID, &toolCall); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}

		n.Content = nullable(content)
		n.ParentID = nullable(parentID)
		n.ToolCall = nullable(toolCall)
		nodes = append(nodes, n)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.FromCtx(ctx).Debug().Int("count", len(nodes)).Msg("loaded message nodes")
	return nodes, nil
}

// SaveNodes replaces every stored node inside one transaction.
func (r *NodesRepo) SaveNodes(ctx context.Context, nodes []core.StoredNode) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM message_nodes`); err != nil {
		return fmt.Errorf("failed to clear nodes: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO message_nodes (message_id, role, content, timestamp, parent_id, tool_call) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, n := range nodes {
		if _, err := stmt.ExecContext(ctx, n.MessageID, n.Role, n.Content, n.Timestamp, n.ParentID, n.ToolCall); err != nil {
			return fmt.Errorf("failed to insert node %s: %w", n.MessageID, err)
		}
	}

	return tx.Commit()
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
