package telegram

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"
)

// Telegram message ids are only unique within a chat, so graph ids carry
// the chat id as well.
func messageKey(chatID int64, msgID int) string {
	return fmt.Sprintf("%d:%d", chatID, msgID)
}

func parseMessageKey(key string) (chatID int64, msgID int, err error) {
	chat, msg, ok := strings.Cut(key, ":")
	if !ok {
		return 0, 0, fmt.Errorf("malformed message key %q", key)
	}
	if chatID, err = strconv.ParseInt(chat, 10, 64); err != nil {
		return 0, 0, fmt.Errorf("malformed chat id in %q: %w", key, err)
	}
	if msgID, err = strconv.Atoi(msg); err != nil {
		return 0, 0, fmt.Errorf("malformed message id in %q: %w", key, err)
	}
	return chatID, msgID, nil
}

func parseChatID(channelID string) (int64, error) {
	id, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed chat id %q: %w", channelID, err)
	}
	return id, nil
}

func displayName(u *tele.User) string {
	if u == nil {
		return "unknown"
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	if u.Username != "" {
		return u.Username
	}
	return strconv.FormatInt(u.ID, 10)
}

// stripMention removes @username from text and reports whether it was there.
func stripMention(text, username string) (string, bool) {
	if username == "" {
		return text, false
	}
	re := regexp.MustCompile(`(?i)@` + regexp.QuoteMeta(username) + `\b`)
	if !re.MatchString(text) {
		return text, false
	}
	return strings.TrimSpace(re.ReplaceAllString(text, "")), true
}

func allowed(chatID int64, chats []int64) bool {
	if len(chats) == 0 {
		return true
	}
	for _, id := range chats {
		if id == chatID {
			return true
		}
	}
	return false
}
