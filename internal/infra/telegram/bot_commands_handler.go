// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"fmt"
	"strings"

	"homework_status_bot/internal/infra/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const unknownChatReply = "Этот бот присылает уведомления только своему владельцу."

// RegisterBotCommands wires /start and /help. The handlers only read immutable
// configuration, never the watcher state.
func RegisterBotCommands(b *telebot.Bot, cfg *config.AppConfig, baseLogger *logrus.Entry) {
	commandsLogger := baseLogger.WithField("handler_group", "start_help")

	isOwnerChat := func(c telebot.Context) bool {
		return c.Chat() != nil && c.Chat().ID == cfg.TelegramChatID
	}

	b.Handle("/start", func(c telebot.Context) error {
		logCtx := commandsLogger.WithField("command", "/start").WithField("chat_id", chatIDOf(c))
		logCtx.Info("Processing /start command")

		if !isOwnerChat(c) {
			logCtx.Warn("Command from unknown chat")
			return c.Send(unknownChatReply)
		}

		return c.Send(fmt.Sprintf(
			"Привет! Я проверяю статус вашей последней домашней работы каждые %s и напишу сюда, когда он изменится.",
			cfg.RetryInterval,
		))
	})

	b.Handle("/help", func(c telebot.Context) error {
		logCtx := commandsLogger.WithField("command", "/help").WithField("chat_id", chatIDOf(c))
		logCtx.Info("Processing /help command")

		if !isOwnerChat(c) {
			logCtx.Warn("Command from unknown chat")
			return c.Send(unknownChatReply)
		}

		var helpText strings.Builder
		helpText.WriteString("Я слежу за ревью домашних работ.\n\n")
		helpText.WriteString(fmt.Sprintf("Интервал проверки: %s\n", cfg.RetryInterval))
		helpText.WriteString(fmt.Sprintf("Глубина истории: %s\n\n", cfg.LookbackPeriod))
		helpText.WriteString("Я пишу, когда меняется статус последней работы, и один раз сообщаю о каждой новой ошибке.\n\n")
		helpText.WriteString("/help - Показать это сообщение.")
		return c.Send(helpText.String())
	})
}

func chatIDOf(c telebot.Context) int64 {
	if c.Chat() == nil {
		return 0
	}
	return c.Chat().ID
}
