package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sandevgo/brotherbot/internal/core"
	"github.com/sandevgo/brotherbot/internal/graph"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type sent struct {
	ID, ChannelID, ReplyToID, Text string
}

type fakeOutbound struct {
	mu      sync.Mutex
	next    int
	sent    []sent
	notices []sent
	acks    []string
	typing  int
	fail    bool
}

func (f *fakeOutbound) Reply(_ context.Context, channelID, replyToID, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", errors.New("platform unavailable")
	}
	f.next++
	id := fmt.Sprintf("out-%d", f.next)
	f.sent = append(f.sent, sent{id, channelID, replyToID, text})
	return id, nil
}

func (f *fakeOutbound) Respond(_ context.Context, channelID, replyToID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, sent{"", channelID, replyToID, text})
	return nil
}

func (f *fakeOutbound) Acknowledge(_ context.Context, _, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acks = append(f.acks, messageID)
	return nil
}

func (f *fakeOutbound) Typing(context.Context, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typing++
}

// failAfter lets the first ok replies through and fails the rest.
type failAfter struct {
	*fakeOutbound
	ok int
}

func (f *failAfter) Reply(ctx context.Context, channelID, replyToID, text string) (string, error) {
	if f.ok == 0 {
		return "", errors.New("platform unavailable")
	}
	f.ok--
	return f.fakeOutbound.Reply(ctx, channelID, replyToID, text)
}

// sizedOutbound measures messages in UTF-8 bytes and refuses any reply
// that would not go out as a single message.
type sizedOutbound struct {
	*fakeOutbound
	limit int
}

func (s *sizedOutbound) MessageSize(text string) (int, int) {
	return len(text), s.limit
}

func (s *sizedOutbound) Reply(ctx context.Context, channelID, replyToID, text string) (string, error) {
	if len(text) > s.limit {
		return "", fmt.Errorf("message of %d bytes needs more than one send", len(text))
	}
	return s.fakeOutbound.Reply(ctx, channelID, replyToID, text)
}

type fakeAI struct {
	mu      sync.Mutex
	replies []core.Message
	err     error
	chains  [][]core.Message
}

func (f *fakeAI) Chat(_ context.Context, history []core.Message, _ []core.Tool) (core.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chains = append(f.chains, history)
	if f.err != nil {
		return core.Message{}, f.err
	}
	if len(f.replies) == 0 {
		return core.Message{Role: core.RoleAssistant, Content: "ok"}, nil
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

type fakeRunner struct {
	code   []string
	output string
	err    error
}

func (f *fakeRunner) Run(_ context.Context, code string) (string, error) {
	f.code = append(f.code, code)
	return f.output, f.err
}

type fakeScheduler struct {
	reqs []core.TimerRequest
}

func (f *fakeScheduler) Request(_ context.Context, req core.TimerRequest) error {
	f.reqs = append(f.reqs, req)
	return nil
}

type harness struct {
	graph  *graph.Graph
	out    *fakeOutbound
	ai     *fakeAI
	runner *fakeRunner
	sched  *fakeScheduler
	bot    *Bot
}

func newHarness(t *testing.T, chunkLimit int) *harness {
	t.Helper()
	g := graph.New(nil, graph.WithClock(func() time.Time { return epoch }))
	h := &harness{
		graph:  g,
		out:    &fakeOutbound{},
		ai:     &fakeAI{},
		runner: &fakeRunner{},
		sched:  &fakeScheduler{},
	}
	router := NewRouter(
		NewPythonTool(g, h.out, h.runner),
		NewTimerTool(h.sched, h.out),
	)
	h.bot = New(g, graph.NewSeeder(g, "persona"), h.ai, h.out, router, NewChunker(g, h.out, chunkLimit), Options{})
	return h
}

func (h *harness) node(t *testing.T, id string) graph.Node {
	t.Helper()
	n, ok := h.graph.Get(id)
	if !ok {
		t.Fatalf("node %s not in graph", id)
	}
	return n
}
