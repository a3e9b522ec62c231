package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/Koneum/sissansissan-api/internal/usecase"
)

// Publisher is what the drainer needs from the broker side.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// Drainer moves committed outbox rows to RabbitMQ. Order events become
// durable in the same transaction as the order itself; delivery to the
// broker is retried out-of-band here.
type Drainer struct {
	repo     usecase.OutboxRepo
	pub      Publisher
	log      *slog.Logger
	interval time.Duration
	batch    int
	backoff  time.Duration
}

func NewDrainer(repo usecase.OutboxRepo, pub Publisher, log *slog.Logger) *Drainer {
	return &Drainer{
		repo:     repo,
		pub:      pub,
		log:      log,
		interval: 2 * time.Second,
		batch:    100,
		backoff:  30 * time.Second,
	}
}

func (d *Drainer) Start(ctx context.Context) {
	t := time.NewTicker(d.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			d.drainOnce(ctx)
		}
	}
}

func (d *Drainer) drainOnce(ctx context.Context) {
	events, err := d.repo.PickBatch(ctx, d.batch)
	if err != nil {
		d.log.Error("outbox pick failed", slog.String("error", err.Error()))
		return
	}
	for _, ev := range events {
		if err := d.pub.Publish(ctx, ev.Channel, ev.Payload); err != nil {
			d.log.Warn("outbox publish failed",
				slog.Int64("event_id", ev.ID),
				slog.String("channel", ev.Channel),
				slog.String("error", err.Error()))
			if err := d.repo.Reschedule(ctx, ev.ID, d.backoff); err != nil {
				d.log.Error("outbox reschedule failed", slog.Int64("event_id", ev.ID), slog.String("error", err.Error()))
			}
			continue
		}
		if err := d.repo.MarkSent(ctx, ev.ID); err != nil {
			d.log.Error("outbox mark-sent failed", slog.Int64("event_id", ev.ID), slog.String("error", err.Error()))
		}
	}
}
