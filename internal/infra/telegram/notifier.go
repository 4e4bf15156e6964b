package telegram

import (
	"context"
	"fmt"

	domainTelegram "homework_status_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// NotificationDeliveryError wraps a failed send to the operator chat.
// The notifier logs it and never returns it.
type NotificationDeliveryError struct {
	ChatID int64
	Err    error
}

func (e *NotificationDeliveryError) Error() string {
	return fmt.Sprintf("failed to deliver notification to chat %d: %v", e.ChatID, e.Err)
}

func (e *NotificationDeliveryError) Unwrap() error {
	return e.Err
}

// ChatNotifier sends operator notifications to one configured chat.
type ChatNotifier struct {
	client  domainTelegram.Client
	chatID  int64
	limiter *rate.Limiter
	logger  *logrus.Entry
}

var _ domainTelegram.Notifier = (*ChatNotifier)(nil)

// NewChatNotifier builds a notifier limited to ratePerSecond messages per
// second. A non-positive rate disables throttling.
func NewChatNotifier(client domainTelegram.Client, chatID int64, ratePerSecond float64, logger *logrus.Entry) *ChatNotifier {
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	return &ChatNotifier{
		client:  client,
		chatID:  chatID,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger.WithField("chat_id", chatID),
	}
}

// Notify sends text to the configured chat and reports whether it was
// delivered. Failures are logged, never raised.
func (n *ChatNotifier) Notify(ctx context.Context, text string) bool {
	if err := n.limiter.Wait(ctx); err != nil {
		n.logger.WithError(err).Error("Notification dropped while waiting for send rate limit")
		return false
	}

	if err := n.client.SendMessage(n.chatID, text, nil); err != nil {
		deliveryErr := &NotificationDeliveryError{ChatID: n.chatID, Err: err}
		n.logger.WithError(deliveryErr).Error("Could not send Telegram message")
		return false
	}

	n.logger.Info("Telegram message sent")
	return true
}
