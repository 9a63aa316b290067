package bot

import (
	"context"

	"github.com/sandevgo/brotherbot/internal/core"
	"github.com/sandevgo/brotherbot/pkg/log"
)

// ToolHandler executes one kind of tool call on behalf of a triggering message.
type ToolHandler interface {
	Name() string
	Handle(ctx context.Context, trigger core.Inbound, call core.ToolCall) error
}

type Router struct {
	handlers map[string]ToolHandler
}

func NewRouter(handlers ...ToolHandler) *Router {
	r := &Router{
		handlers: make(map[string]ToolHandler),
	}
	for _, h := range handlers {
		r.handlers[h.Name()] = h
	}
	return r
}

// Dispatch runs the calls in order. Failures are logged per call so one
// broken call does not stop the rest.
func (r *Router) Dispatch(ctx context.Context, trigger core.Inbound, calls []core.ToolCall) {
	logger := log.FromCtx(ctx)

	for _, call := range calls {
		h, ok := r.handlers[call.Function.Name]
		if !ok {
			logger.Warn().Str("tool", call.Function.Name).Msg("no handler for tool")
			continue
		}

		logger.Info().Str("tool", call.Function.Name).Str("call_id", call.ID).Msg("executing tool")
		if err := h.Handle(ctx, trigger, call); err != nil {
			logger.Error().Err(err).Str("tool", call.Function.Name).Msg("tool call failed")
		}
	}
}
