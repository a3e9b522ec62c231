package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/Koneum/sissansissan-api/internal/usecase"
)

// MySQLOutboxRepo serves the drainer side of the outbox; rows are inserted
// by the order writer inside the checkout transaction.
type MySQLOutboxRepo struct{ db *sql.DB }

func NewMySQLOutboxRepo(db *sql.DB) *MySQLOutboxRepo { return &MySQLOutboxRepo{db: db} }

func (r *MySQLOutboxRepo) PickBatch(ctx context.Context, limit int) ([]usecase.OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id,channel,payload FROM outbox
WHERE status='PENDING' AND next_attempt_at <= NOW()
ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []usecase.OutboxEvent
	for rows.Next() {
		var ev usecase.OutboxEvent
		if err := rows.Scan(&ev.ID, &ev.Channel, &ev.Payload); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (r *MySQLOutboxRepo) MarkSent(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE outbox SET status='SENT', updated_at=NOW() WHERE id=?`, id)
	return err
}

func (r *MySQLOutboxRepo) Reschedule(ctx context.Context, id int64, delay time.Duration) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE outbox SET retry_count = retry_count + 1,
  next_attempt_at = NOW() + INTERVAL ? SECOND
WHERE id=?`, int(delay.Seconds()), id)
	return err
}

var _ usecase.OutboxRepo = (*MySQLOutboxRepo)(nil)
