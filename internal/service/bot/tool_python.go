package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sandevgo/brotherbot/internal/core"
	"github.com/sandevgo/brotherbot/internal/graph"
	"github.com/sandevgo/brotherbot/pkg/log"
)

const maxToolOutput = 2000

type PythonTool struct {
	graph  *graph.Graph
	out    core.Outbound
	runner core.CodeRunner
}

func NewPythonTool(g *graph.Graph, out core.Outbound, runner core.CodeRunner) *PythonTool {
	return &PythonTool{graph: g, out: out, runner: runner}
}

func (p *PythonTool) Name() string { return core.ToolPython }

func (p *PythonTool) Handle(ctx context.Context, trigger core.Inbound, call core.ToolCall) error {
	if call.Function.Arguments == "" {
		return nil
	}
	command := parseCommand(call.Function.Arguments)

	cmdID, err := p.out.Reply(ctx, trigger.ChannelID, trigger.ID, "```python\n"+command+"\n```")
	if err != nil {
		return fmt.Errorf("failed to post command: %w", err)
	}

	p.out.Typing(ctx, trigger.ChannelID)
	output, runErr := p.runner.Run(ctx, command)
	if runErr != nil {
		return p.fail(ctx, trigger, call, cmdID, command, runErr)
	}

	output = truncate(output)
	outID, err := p.out.Reply(ctx, trigger.ChannelID, cmdID, "```\n"+output+"\n```")
	if err != nil {
		return fmt.Errorf("failed to post output: %w", err)
	}

	now := p.graph.Now()
	if err := p.graph.Add(graph.Node{
		ID:        cmdID,
		Role:      core.RoleAssistant,
		Content:   command,
		Timestamp: now,
		ParentID:  trigger.ID,
		ToolCall:  call.ID,
	}); err != nil {
		return err
	}
	return p.graph.Add(graph.Node{
		ID:        outID,
		Role:      core.RoleTool,
		Content:   output,
		Timestamp: now,
		ParentID:  cmdID,
		ToolCall:  call.ID,
	})
}

// fail threads the command and the error into the graph so a reply to
// either message resumes the conversation.
func (p *PythonTool) fail(ctx context.Context, trigger core.Inbound, call core.ToolCall, cmdID, command string, runErr error) error {
	text := runErrorText(runErr)
	errID, err := p.out.Reply(ctx, trigger.ChannelID, cmdID, "Error: "+text)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("call", call.ID).Msg("failed to post sandbox error")
	}

	now := p.graph.Now()
	if err := p.graph.Add(graph.Node{
		ID:        cmdID,
		Role:      core.RoleAssistant,
		Content:   command,
		Timestamp: now,
		ParentID:  trigger.ID,
	}); err != nil {
		return err
	}
	if errID == "" {
		return nil
	}
	return p.graph.Add(graph.Node{
		ID:        errID,
		Role:      core.RoleSystem,
		Content:   text,
		Timestamp: now,
		ParentID:  cmdID,
	})
}

func runErrorText(err error) string {
	if errors.Is(err, core.ErrCodeTimeout) || errors.Is(err, core.ErrCodeFailed) {
		return "Code execution timed out or error occurred."
	}
	return err.Error()
}

// parseCommand pulls "command" out of the arguments. Models are not
// consistent here, so anything else is taken as the code itself.
func parseCommand(arguments string) string {
	var args struct {
		Command string `json:"command"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil || args.Command == "" {
		return arguments
	}
	return args.Command
}

func truncate(input string) string {
	r := []rune(input)
	if len(r) <= maxToolOutput {
		return input
	}

	head := string(r[:500])
	tail := string(r[len(r)-(maxToolOutput-500):])
	return fmt.Sprintf("%s\n\n... [TRUNCATED %d characters] ...\n\n%s", head, len(r)-maxToolOutput, tail)
}
