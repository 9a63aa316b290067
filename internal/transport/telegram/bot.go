package telegram

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sandevgo/brotherbot/internal/config"
	"github.com/sandevgo/brotherbot/internal/core"
	"github.com/sandevgo/brotherbot/pkg/conv"
	"github.com/sandevgo/brotherbot/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const (
	baseContextKey = "base_context"

	btnTimerOK     = "timer_ok"
	btnTimerCancel = "timer_cancel"
)

type Bot struct {
	bot      *tele.Bot
	cfg      *config.TelegramConfig
	sender   *sender
	handler  core.InboundHandler
	resolver core.TimerResolver
}

func NewBot(ctx context.Context, cfg *config.TelegramConfig) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			log.FromCtx(ctx).Error().Err(err).Msg("telegram handler error")
		},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := &Bot{
		bot:    b,
		cfg:    cfg,
		sender: newSender(b),
	}

	// Use context from Signal with logger
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			c.Set(baseContextKey, ctx)
			return next(c)
		}
	})

	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.FromCtx(ctx).Error().Interface("panic", r).Msg("recovered telegram handler")
					err = nil
				}
			}()
			return next(c)
		}
	})

	// Middleware: only the configured chats
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Chat() == nil || !allowed(c.Chat().ID, cfg.AllowedChats) {
				return nil
			}
			return next(c)
		}
	})

	b.Handle(tele.OnText, bot.handleMessage)
	b.Handle(&tele.Btn{Unique: btnTimerOK}, bot.handleTimerButton(true))
	b.Handle(&tele.Btn{Unique: btnTimerCancel}, bot.handleTimerButton(false))

	return bot, nil
}

// Bind attaches the message handler and timer resolver. It must be called
// before Start.
func (b *Bot) Bind(h core.InboundHandler, r core.TimerResolver) {
	b.handler = h
	b.resolver = r
}

func (b *Bot) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Str("username", b.bot.Me.Username).Msg("starting telegram bot")
	b.bot.Start()
	return nil
}

func (b *Bot) Shutdown(ctx context.Context) error {
	b.bot.Stop()
	return nil
}

func (b *Bot) handleMessage(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	if b.handler == nil {
		return nil
	}
	b.handler.HandleInbound(ctx, b.inbound(c.Message()))
	return nil
}

func (b *Bot) inbound(m *tele.Message) core.Inbound {
	text, mentioned := stripMention(m.Text, b.bot.Me.Username)

	in := core.Inbound{
		ID:         messageKey(m.Chat.ID, m.ID),
		ChannelID:  strconv.FormatInt(m.Chat.ID, 10),
		AuthorName: displayName(m.Sender),
		Content:    text,
		Mentioned:  mentioned,
		Direct:     m.Private(),
	}
	if m.Sender != nil {
		in.AuthorID = strconv.FormatInt(m.Sender.ID, 10)
		in.FromSelf = m.Sender.ID == b.bot.Me.ID
	}
	if m.ReplyTo != nil {
		in.ReplyToID = messageKey(m.Chat.ID, m.ReplyTo.ID)
	}
	return in
}

func (b *Bot) handleTimerButton(approve bool) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := c.Get(baseContextKey).(context.Context)
		logger := log.FromCtx(ctx)
		if b.resolver == nil {
			return c.Respond()
		}

		user := c.Sender()
		done, err := b.resolver.Resolve(ctx, c.Callback().Data, strconv.FormatInt(user.ID, 10), displayName(user), approve)
		if err != nil {
			logger.Error().Err(err).Msg("failed to resolve timer")
		}
		if done && c.Message() != nil {
			if _, err := b.bot.EditReplyMarkup(c.Message(), nil); err != nil {
				logger.Warn().Err(err).Msg("failed to clear timer buttons")
			}
		}
		return c.Respond()
	}
}

func (b *Bot) Reply(ctx context.Context, channelID, replyToID, text string) (string, error) {
	chatID, replyTo, err := replyTarget(channelID, replyToID)
	if err != nil {
		return "", err
	}

	msg, err := b.sender.sendOne(ctx, &tele.Chat{ID: chatID}, replyTo, text, false)
	if err != nil {
		return "", err
	}
	return messageKey(chatID, msg.ID), nil
}

// MessageSize reports text against the per-message limit Reply enforces.
func (b *Bot) MessageSize(text string) (int, int) {
	return messageSize(text), maxTelegramMsgLen
}

func (b *Bot) Respond(ctx context.Context, channelID, replyToID, text string) error {
	chatID, replyTo, err := replyTarget(channelID, replyToID)
	if err != nil {
		return err
	}

	_, err = b.sender.sendMarkdown(ctx, &tele.Chat{ID: chatID}, replyTo, text, false)
	return err
}

func replyTarget(channelID, replyToID string) (int64, *tele.Message, error) {
	chatID, err := parseChatID(channelID)
	if err != nil {
		return 0, nil, err
	}
	if replyToID == "" {
		return chatID, nil, nil
	}
	_, msgID, err := parseMessageKey(replyToID)
	if err != nil {
		return 0, nil, err
	}
	return chatID, &tele.Message{ID: msgID, Chat: &tele.Chat{ID: chatID}}, nil
}

func (b *Bot) Acknowledge(ctx context.Context, channelID, messageID string) error {
	_, err := b.Reply(ctx, channelID, messageID, "👍")
	return err
}

func (b *Bot) Typing(ctx context.Context, channelID string) {
	chatID, err := parseChatID(channelID)
	if err != nil {
		return
	}
	if err := b.bot.Notify(&tele.Chat{ID: chatID}, tele.Typing); err != nil {
		log.FromCtx(ctx).Debug().Err(err).Msg("failed to send typing action")
	}
}

func (b *Bot) Announce(ctx context.Context, channelID, text string) error {
	chatID, err := parseChatID(channelID)
	if err != nil {
		return err
	}
	_, err = b.sender.sendMarkdown(ctx, &tele.Chat{ID: chatID}, nil, text, false)
	return err
}

func (b *Bot) Notify(ctx context.Context, channelID, userID, text string) error {
	chatID, err := parseChatID(channelID)
	if err != nil {
		return err
	}
	uid, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed user id %q: %w", userID, err)
	}

	name := "you"
	if member, err := b.bot.ChatMemberOf(&tele.Chat{ID: chatID}, &tele.User{ID: uid}); err == nil && member.User != nil {
		name = displayName(member.User)
	}

	mention := conv.UserMention(name, uid)
	_, err = b.sender.sendMarkdown(ctx, &tele.Chat{ID: chatID}, nil, mention+" "+text, false)
	return err
}

func (b *Bot) Confirm(ctx context.Context, pendingID string, req core.TimerRequest, prompt string) error {
	chatID, err := parseChatID(req.ChannelID)
	if err != nil {
		return err
	}

	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(
		menu.Data("👍", btnTimerOK, pendingID),
		menu.Data("❌", btnTimerCancel, pendingID),
	))

	opts := &tele.SendOptions{ReplyMarkup: menu}
	if _, msgID, err := parseMessageKey(req.ReplyToID); err == nil {
		opts.ReplyTo = &tele.Message{ID: msgID, Chat: &tele.Chat{ID: chatID}}
	}

	_, err = b.bot.Send(&tele.Chat{ID: chatID}, prompt, opts)
	return err
}
