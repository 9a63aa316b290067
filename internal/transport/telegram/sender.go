package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sandevgo/brotherbot/pkg/conv"
	"github.com/sandevgo/brotherbot/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const (
	// Bot API limit, in UTF-16 code units after entity parsing.
	maxTelegramMsgLen = 4096
	// Byte budget for splitting untracked text. A byte is never less than
	// one UTF-16 unit, so a piece this size always fits.
	maxChunkBytes = 4000
)

var errTooLong = errors.New("message exceeds telegram limit")

type sender struct {
	bot *tele.Bot
}

func newSender(bot *tele.Bot) *sender {
	return &sender{bot: bot}
}

// sendOne posts md as exactly one message: rendered HTML when Telegram takes
// it, plain text otherwise.
func (s *sender) sendOne(ctx context.Context, to tele.Recipient, replyTo *tele.Message, md string, silent bool) (*tele.Message, error) {
	logger := log.FromCtx(ctx)

	if size := messageSize(md); size > maxTelegramMsgLen {
		return nil, fmt.Errorf("%w: %d > %d", errTooLong, size, maxTelegramMsgLen)
	}

	html := strings.TrimSpace(conv.MarkdownToTelegramHTML([]byte(md)))
	if html != "" {
		msg, err := s.bot.Send(to, html, sendOptions(replyTo, tele.ModeHTML, silent))
		if err == nil {
			return msg, nil
		}
		logger.Warn().Err(err).Msg("html rejected, sending plain text")
	}

	msg, err := s.bot.Send(to, md, sendOptions(replyTo, tele.ModeDefault, silent))
	if err != nil {
		logger.Error().Err(err).Int("len", len(md)).Msg("failed to send telegram message")
		return nil, err
	}
	return msg, nil
}

// sendMarkdown posts text of any length, one message per piece, each
// replying to the one before. It returns the last message sent.
func (s *sender) sendMarkdown(ctx context.Context, to tele.Recipient, replyTo *tele.Message, md string, silent bool) (*tele.Message, error) {
	last := replyTo
	for _, chunk := range splitText(md, maxChunkBytes) {
		msg, err := s.sendOne(ctx, to, last, chunk, silent)
		if err != nil {
			return nil, err
		}
		last = msg
	}
	return last, nil
}

func sendOptions(replyTo *tele.Message, mode tele.ParseMode, silent bool) *tele.SendOptions {
	return &tele.SendOptions{
		ReplyTo:             replyTo,
		ParseMode:           mode,
		DisableNotification: silent,
	}
}

// messageSize is the larger of what Telegram counts for the HTML rendering
// and for the plain fallback, so either one goes out whole.
func messageSize(md string) int {
	size := utf16Len(md)
	if html := strings.TrimSpace(conv.MarkdownToTelegramHTML([]byte(md))); html != "" {
		size = max(size, utf16Len(conv.VisibleText(html)))
	}
	return size
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// splitText splits text into chunks of at most maxLen bytes.
// It tries to split at newlines to preserve formatting.
func splitText(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			chunks = append(chunks, text)
			break
		}

		cut := maxLen
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if idx := strings.LastIndex(text[:maxLen], "\n"); idx > maxLen/3 {
			cut = idx
		}

		chunks = append(chunks, text[:cut])
		text = strings.TrimSpace(text[cut:])
	}
	return chunks
}
