package core

import "context"

// NodeRepository persists the whole conversation graph at once.
type NodeRepository interface {
	LoadNodes(ctx context.Context) ([]StoredNode, error)
	SaveNodes(ctx context.Context, nodes []StoredNode) error
}

// StoredNode is the persisted shape of a conversation node. Pointer
// fields are null in the store when unset.
type StoredNode struct {
	MessageID string  `json:"message_id"`
	Role      string  `json:"role"`
	Content   *string `json:"content"`
	Timestamp float64 `json:"timestamp"`
	ParentID  *string `json:"parent_id"`
	ToolCall  *string `json:"tool_call"`
}
