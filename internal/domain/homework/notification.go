// internal/domain/homework/notification.go
package homework

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NotificationKind tells status-change messages apart from failure reports.
type NotificationKind string

const (
	NotificationKindStatus NotificationKind = "STATUS"
	NotificationKindError  NotificationKind = "ERROR"
)

// Notification is one message handed to the messaging channel.
// Corresponds to the 'homework_notifications' journal table.
type Notification struct {
	ID        uuid.UUID
	CycleID   uuid.UUID // poll cycle that produced the message
	Kind      NotificationKind
	Text      string
	Delivered bool
	CreatedAt time.Time
}

// Journal records dispatched notifications. It is write-only: nothing in the
// watcher reads it back.
type Journal interface {
	SaveNotification(ctx context.Context, n *Notification) error
}
