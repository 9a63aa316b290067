package graph

import (
	"math"
	"time"

	"github.com/sandevgo/brotherbot/internal/core"
)

// Node is a single turn of a conversation. ParentID is a weak reference:
// it may point at a node that retention already evicted.
type Node struct {
	ID        string
	Role      core.Role
	Content   string
	Timestamp time.Time
	ParentID  string
	ToolCall  string
}

func (n Node) validate() error {
	switch {
	case n.ID == "":
		return &ValidationError{Err: ErrMissingID}
	case !n.Role.Valid():
		return &ValidationError{ID: n.ID, Err: ErrInvalidRole}
	case n.Timestamp.IsZero():
		return &ValidationError{ID: n.ID, Err: ErrMissingTimestamp}
	}
	return nil
}

// message projects the node into the shape the model expects.
// Only tool nodes carry the tool call id.
func (n Node) message() core.Message {
	msg := core.Message{Role: n.Role, Content: n.Content}
	if n.Role == core.RoleTool {
		msg.ToolCallID = n.ToolCall
	}
	return msg
}

func (n Node) stored() core.StoredNode {
	content := n.Content
	return core.StoredNode{
		MessageID: n.ID,
		Role:      string(n.Role),
		Content:   &content,
		Timestamp: toEpoch(n.Timestamp),
		ParentID:  optional(n.ParentID),
		ToolCall:  optional(n.ToolCall),
	}
}

func nodeFromStored(s core.StoredNode) (Node, error) {
	if s.MessageID == "" {
		return Node{}, &ValidationError{Err: ErrMissingID}
	}
	role, ok := core.ParseRole(s.Role)
	if !ok {
		return Node{}, &ValidationError{ID: s.MessageID, Err: ErrInvalidRole}
	}
	if s.Content == nil {
		return Node{}, &ValidationError{ID: s.MessageID, Err: ErrMissingContent}
	}
	if s.Timestamp <= 0 {
		return Node{}, &ValidationError{ID: s.MessageID, Err: ErrMissingTimestamp}
	}

	n := Node{
		ID:        s.MessageID,
		Role:      role,
		Content:   *s.Content,
		Timestamp: fromEpoch(s.Timestamp),
	}
	if s.ParentID != nil {
		n.ParentID = *s.ParentID
	}
	if s.ToolCall != nil {
		n.ToolCall = *s.ToolCall
	}
	return n, nil
}

func toEpoch(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func fromEpoch(f float64) time.Time {
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*float64(time.Second)))
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
