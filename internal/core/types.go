package core

import "encoding/json"

const (
	BotName          = "BrotherBot"
	BotUserAgent     = "BrotherBot/0.1"
	BotRepositoryURL = "https://github.com/sandevgo/brotherbot"
	BotVersion       = "0.1.0"
)

// Names of the tools the model may call.
const (
	ToolPython = "python"
	ToolTimer  = "timer"
)

// Role is the author class of a conversation node.
type Role string

const (
	RoleNone      Role = ""
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleSystem    Role = "system"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleTool, RoleSystem:
		return true
	}
	return false
}

func (r Role) String() string {
	if r == RoleNone {
		return "None"
	}
	return string(r)
}

// ParseRole returns RoleNone and false for anything outside the four roles.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	if !r.Valid() {
		return RoleNone, false
	}
	return r, true
}

type Function struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"` // JSON Schema
}

type Tool struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// Inbound is a platform message normalized by a transport.
type Inbound struct {
	ID         string
	ChannelID  string
	AuthorID   string
	AuthorName string
	Content    string
	ReplyToID  string
	FromSelf   bool
	Mentioned  bool
	Direct     bool
}
