package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/google/uuid"
	"github.com/sandevgo/brotherbot/internal/core"
	"github.com/sandevgo/brotherbot/pkg/log"
)

const (
	ChannelID = "cli"
	authorID  = "cli-user"

	cmdNew = "/new"
)

// ReadLine is a local chat transport. Every line continues the thread from
// the bot's last message until /new starts a fresh one.
type ReadLine struct {
	rl       *readline.Instance
	out      io.Writer
	author   string
	handler  core.InboundHandler
	resolver core.TimerResolver

	mu   sync.Mutex
	last string
}

func NewReadLine(runtimePath string) (*ReadLine, error) {
	// Ensure runtime directory exists
	if err := os.MkdirAll(runtimePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     filepath.Join(runtimePath, "input_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return &ReadLine{
		rl:     rl,
		out:    rl.Stdout(),
		author: localUser(),
	}, nil
}

func localUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "you"
}

// Bind attaches the message handler and timer resolver. It must be called
// before Start.
func (r *ReadLine) Bind(h core.InboundHandler, res core.TimerResolver) {
	r.handler = h
	r.resolver = res
}

func (r *ReadLine) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Msg("ReadLine chat started. Type 'exit' to quit, '/new' for a new thread.")

	for {
		// Check context before blocking read
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if len(line) == 0 {
					return nil // Exit on Ctrl+C
				}
				continue
			} else if err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		switch line {
		case "exit":
			return nil
		case "":
			continue
		case cmdNew:
			r.setLast("")
			fmt.Fprintln(r.out, "[new thread]")
			continue
		}

		if r.handler != nil {
			r.handler.HandleInbound(ctx, r.inbound(line))
		}
	}
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}

func (r *ReadLine) inbound(line string) core.Inbound {
	return core.Inbound{
		ID:         uuid.NewString(),
		ChannelID:  ChannelID,
		AuthorID:   authorID,
		AuthorName: r.author,
		Content:    line,
		ReplyToID:  r.lastID(),
		Direct:     true,
	}
}

func (r *ReadLine) Reply(ctx context.Context, channelID, replyToID, text string) (string, error) {
	id := uuid.NewString()
	fmt.Fprintf(r.out, "%s\n", text)
	r.setLast(id)
	return id, nil
}

// Respond prints text without moving the thread cursor; nothing can
// reply to it.
func (r *ReadLine) Respond(ctx context.Context, channelID, replyToID, text string) error {
	fmt.Fprintf(r.out, "%s\n", text)
	return nil
}

func (r *ReadLine) Acknowledge(ctx context.Context, channelID, messageID string) error {
	fmt.Fprintln(r.out, "👍")
	r.setLast(messageID)
	return nil
}

func (r *ReadLine) Typing(ctx context.Context, channelID string) {}

func (r *ReadLine) Announce(ctx context.Context, channelID, text string) error {
	fmt.Fprintf(r.out, "\n%s\n", text)
	return nil
}

func (r *ReadLine) Notify(ctx context.Context, channelID, userID, text string) error {
	fmt.Fprintf(r.out, "\n@%s %s\n", r.author, text)
	return nil
}

// Confirm asks on the terminal right away; it runs on the input goroutine
// so it can read the answer itself.
func (r *ReadLine) Confirm(ctx context.Context, pendingID string, req core.TimerRequest, prompt string) error {
	fmt.Fprintln(r.out, prompt)

	r.rl.SetPrompt("[y/N] ")
	answer, err := r.rl.Readline()
	r.rl.SetPrompt(">>> ")
	if err != nil {
		answer = ""
	}

	if r.resolver == nil {
		return nil
	}
	approve := isYes(answer)
	if _, err := r.resolver.Resolve(ctx, pendingID, authorID, r.author, approve); err != nil {
		return fmt.Errorf("failed to resolve timer: %w", err)
	}
	return nil
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "👍":
		return true
	}
	return false
}

func (r *ReadLine) setLast(id string) {
	r.mu.Lock()
	r.last = id
	r.mu.Unlock()
}

func (r *ReadLine) lastID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}
