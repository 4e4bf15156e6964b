// internal/infra/database/postgres_notification_repository.go
package database

import (
	"context"
	"database/sql"

	"homework_status_bot/internal/domain/homework"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ErrInvalidNotification is returned for records the journal refuses to store.
var ErrInvalidNotification = errors.New("invalid notification record")

const uniqueViolation = pq.ErrorCode("23505")

type PostgresNotificationJournal struct {
	db *sql.DB
}

func NewPostgresNotificationJournal(db *sql.DB) *PostgresNotificationJournal {
	return &PostgresNotificationJournal{db: db}
}

func (r *PostgresNotificationJournal) SaveNotification(ctx context.Context, n *homework.Notification) error {
	if err := validateNotification(n); err != nil {
		return err
	}

	query := `INSERT INTO homework_notifications (id, cycle_id, kind, text, delivered, created_at)
               VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, n.ID, n.CycleID, n.Kind, n.Text, n.Delivered, n.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return errors.Wrapf(ErrInvalidNotification, "notification %s already recorded", n.ID)
		}
		return errors.Wrap(err, "error saving homework notification")
	}
	return nil
}

func validateNotification(n *homework.Notification) error {
	switch {
	case n == nil:
		return errors.Wrap(ErrInvalidNotification, "nil notification")
	case n.ID == uuid.Nil:
		return errors.Wrap(ErrInvalidNotification, "empty id")
	case n.Kind != homework.NotificationKindStatus && n.Kind != homework.NotificationKindError:
		return errors.Wrapf(ErrInvalidNotification, "unknown kind %q", n.Kind)
	}
	return nil
}

// NoopJournal discards every record. Used when no database is configured.
type NoopJournal struct{}

func (NoopJournal) SaveNotification(context.Context, *homework.Notification) error {
	return nil
}
