package llm

import (
	"context"
	"encoding/json"

	"github.com/sandevgo/brotherbot/internal/core"
	"github.com/sandevgo/brotherbot/pkg/log"
)

// sanitizeToolCalls rebuilds the tool pairing the API insists on. The graph
// stores a command as a plain assistant node followed by a tool node, so an
// assistant message directly followed by tool results gets a synthetic
// tool_calls entry. Tool results with no open call become system messages,
// and calls that never got a result are stripped.
func sanitizeToolCalls(ctx context.Context, msgs []core.Message) []core.Message {
	logger := log.FromCtx(ctx)

	var out []core.Message
	openIdx := -1
	pending := map[string]bool{}

	closeOpen := func() {
		if openIdx < 0 {
			return
		}
		if len(pending) > 0 {
			kept := out[openIdx].ToolCalls[:0:0]
			for _, tc := range out[openIdx].ToolCalls {
				if !pending[tc.ID] {
					kept = append(kept, tc)
				}
			}
			if len(kept) == 0 {
				kept = nil
			}
			out[openIdx].ToolCalls = kept
		}
		openIdx = -1
		pending = map[string]bool{}
	}

	for i, m := range msgs {
		switch m.Role {
		case core.RoleAssistant:
			closeOpen()
			if len(m.ToolCalls) == 0 && i+1 < len(msgs) && msgs[i+1].Role == core.RoleTool && msgs[i+1].ToolCallID != "" {
				m.ToolCalls = []core.ToolCall{replayedCall(msgs[i+1].ToolCallID, m.Content)}
			}
			out = append(out, m)
			if len(m.ToolCalls) > 0 {
				openIdx = len(out) - 1
				for _, tc := range m.ToolCalls {
					pending[tc.ID] = true
				}
			}

		case core.RoleTool:
			if pending[m.ToolCallID] {
				delete(pending, m.ToolCallID)
				out = append(out, m)
				continue
			}
			closeOpen()
			logger.Warn().Str("tool_call_id", m.ToolCallID).Msg("orphaned tool result, demoting to system message")
			out = append(out, core.Message{Role: core.RoleSystem, Content: m.Content})

		default:
			closeOpen()
			out = append(out, m)
		}
	}
	closeOpen()

	return out
}

func replayedCall(id, command string) core.ToolCall {
	args, _ := json.Marshal(map[string]string{"command": command})
	return core.ToolCall{
		ID:   id,
		Type: "function",
		Function: core.FunctionCall{
			Name:      core.ToolPython,
			Arguments: string(args),
		},
	}
}
