package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestao-municipal/gestao/internal/calendar"
)

// DocumentContract is the notification_log kind for contracts.
const DocumentContract = "contract"

// Log persists one row per notified (document, day).
type Log struct {
	pool *pgxpool.Pool
}

// NewLog constructs the store.
func NewLog(pool *pgxpool.Pool) *Log {
	return &Log{pool: pool}
}

// Record claims the (kind, id, day) slot. A second claim returns ErrAlreadyNotified.
func (l *Log) Record(ctx context.Context, kind string, id int64, day calendar.Date, daysRemaining int) error {
	if l == nil || l.pool == nil {
		return errors.New("notifications: log not initialised")
	}
	_, err := l.pool.Exec(ctx, `INSERT INTO notification_log (document_kind, document_id, notified_on, days_remaining)
VALUES ($1, $2, $3, $4)`, kind, id, day.Time(), daysRemaining)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyNotified
		}
		return err
	}
	return nil
}

// Release removes a claim, used when the alert could not be queued.
func (l *Log) Release(ctx context.Context, kind string, id int64, day calendar.Date) error {
	if l == nil || l.pool == nil {
		return nil
	}
	_, err := l.pool.Exec(ctx, `DELETE FROM notification_log WHERE document_kind = $1 AND document_id = $2 AND notified_on = $3`, kind, id, day.Time())
	return err
}

// Cleanup removes entries older than retention.
func (l *Log) Cleanup(ctx context.Context, olderThan time.Duration) error {
	if l == nil || l.pool == nil {
		return nil
	}
	_, err := l.pool.Exec(ctx, `DELETE FROM notification_log WHERE created_at < $1`, time.Now().Add(-olderThan))
	return err
}
