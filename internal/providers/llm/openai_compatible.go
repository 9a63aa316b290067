package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/sandevgo/brotherbot/internal/core"
	"github.com/sandevgo/brotherbot/pkg/log"
	"github.com/sandevgo/brotherbot/pkg/retry"
	openai "github.com/sashabaranov/go-openai"
)

const defaultTimeout = 120 * time.Second

type OpenAICompatibleConfig struct {
	BaseURL      string
	APIKey       string
	Model        string
	Timeout      time.Duration
	ExtraHeaders map[string]string
}

type OpenAICompatible struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	retrier *retry.Retrier
	tokens  *tokenCounter
}

func NewOpenAICompatible(cfg OpenAICompatibleConfig) *OpenAICompatible {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	if len(cfg.ExtraHeaders) > 0 {
		clientCfg.HTTPClient = &http.Client{
			Transport: &headerTransport{headers: cfg.ExtraHeaders, next: http.DefaultTransport},
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	retryCfg := retry.NewDefaultConfig()
	retryCfg.MaxRetries = 2

	return &OpenAICompatible{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: timeout,
		retrier: retry.NewRetrier(retryCfg),
		tokens:  newTokenCounter(cfg.Model),
	}
}

func (o *OpenAICompatible) Chat(ctx context.Context, history []core.Message, tools []core.Tool) (core.Message, error) {
	logger := log.FromCtx(ctx)

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	history = sanitizeToolCalls(ctx, history)
	if ev := logger.Debug(); ev.Enabled() {
		ev.Int("messages", len(history)).
			Int("tokens", o.tokens.count(ctx, history)).
			Msg("sending chat completion")
	}

	req := openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: toOpenAIMessages(history),
	}
	if len(tools) > 0 {
		req.Tools = toOpenAITools(tools)
		req.ToolChoice = "auto"
	}

	var resp openai.ChatCompletionResponse
	err := o.retrier.Do(ctx, func() error {
		var err error
		resp, err = o.client.CreateChatCompletion(ctx, req)
		if err != nil && !retryable(err) {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		return core.Message{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return core.Message{}, fmt.Errorf("empty choices from model %s", o.model)
	}

	return fromOpenAIMessage(resp.Choices[0].Message), nil
}

// Models lists the model ids served by the backend, sorted.
func (o *OpenAICompatible) Models(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	list, err := o.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	sort.Strings(ids)
	return ids, nil
}

// retryable reports whether the upstream failure is transient.
func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	return false
}

func toOpenAIMessages(history []core.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, m := range history {
		msg := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
		out = append(out, msg)
	}
	return out
}

func toOpenAITools(tools []core.Tool) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  json.RawMessage(t.Function.Parameters),
			},
		})
	}
	return out
}

func fromOpenAIMessage(m openai.ChatCompletionMessage) core.Message {
	msg := core.Message{
		Role:       core.RoleAssistant,
		Content:    m.Content,
		ToolCallID: m.ToolCallID,
	}
	if role, ok := core.ParseRole(m.Role); ok {
		msg.Role = role
	}
	for _, tc := range m.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, core.ToolCall{
			ID:   tc.ID,
			Type: string(tc.Type),
			Function: core.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return msg
}

type headerTransport struct {
	headers map[string]string
	next    http.RoundTripper
}

func (h *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range h.headers {
		req.Header.Set(k, v)
	}
	return h.next.RoundTrip(req)
}
