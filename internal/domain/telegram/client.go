package telegram

import (
	"context"

	"gopkg.in/telebot.v3"
)

// Client sends raw messages to a Telegram chat.
// It keeps the watcher independent of the concrete bot library setup.
type Client interface {
	SendMessage(chatID int64, text string, options *telebot.SendOptions) error
}

// Notifier delivers operator notifications on a best-effort basis.
// Notify never fails loudly; the result only says whether delivery succeeded.
type Notifier interface {
	Notify(ctx context.Context, text string) bool
}
