package core

import (
	"context"
	"errors"
	"time"
)

type AIProvider interface {
	Chat(ctx context.Context, history []Message, tools []Tool) (Message, error)
}

// Errors a CodeRunner reports when the code produced no usable output.
var (
	ErrCodeTimeout = errors.New("code execution timed out")
	ErrCodeFailed  = errors.New("code execution failed")
)

type CodeRunner interface {
	Run(ctx context.Context, code string) (string, error)
}

// Outbound delivers bot output to the chat platform.
// Reply returns the platform id of the sent message.
type Outbound interface {
	Reply(ctx context.Context, channelID, replyToID, text string) (string, error)
	Acknowledge(ctx context.Context, channelID, messageID string) error
	Typing(ctx context.Context, channelID string)
}

// Responder answers a message with text that stays out of the
// conversation graph, such as timer confirmations and input errors.
type Responder interface {
	Respond(ctx context.Context, channelID, replyToID, text string) error
}

// MessageSizer is implemented by an Outbound whose platform limit is not a
// rune count. MessageSize reports how much of limit text takes once sent.
type MessageSizer interface {
	MessageSize(text string) (size, limit int)
}

// Announcer posts unsolicited messages into a channel.
type Announcer interface {
	Announce(ctx context.Context, channelID, text string) error
}

// Notifier pings a user in a channel.
type Notifier interface {
	Notify(ctx context.Context, channelID, userID, text string) error
}

type TimerRequest struct {
	Name        string
	At          time.Time
	ChannelID   string
	RequesterID string
	ReplyToID   string
}

// Confirmer asks the channel to approve a pending timer. The
// transport calls back into the Scheduler with the decision.
type Confirmer interface {
	Confirm(ctx context.Context, pendingID string, req TimerRequest, prompt string) error
}

type Scheduler interface {
	Request(ctx context.Context, req TimerRequest) error
}

// InboundHandler receives messages normalized by a transport.
type InboundHandler interface {
	HandleInbound(ctx context.Context, in Inbound)
}

// TimerResolver settles a pending timer confirmation. It reports whether
// the pending request was consumed.
type TimerResolver interface {
	Resolve(ctx context.Context, pendingID, userID, userName string, approve bool) (bool, error)
}
