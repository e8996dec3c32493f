package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Martian-dev/inbox-categorizer/internal/eventstore/sqlite"
)

// Outbox is the queue side of the journal store.
type Outbox interface {
	DequeueOutbox(ctx context.Context, limit int) ([]sqlite.OutboxMessage, error)
	MarkPublished(ctx context.Context, id int64) error
	MarkOutboxRetry(ctx context.Context, id int64, backoff time.Duration) error
}

// Publisher delivers one event; msgID is used for broker side dedup.
type Publisher interface {
	Publish(subject string, payload []byte, msgID string) error
}

// Dispatcher moves queued events from the outbox to the publisher.
type Dispatcher struct {
	Outbox    Outbox
	Publisher Publisher
	Log       *zap.Logger

	BatchSize    int
	IdleInterval time.Duration
	RetryBackoff time.Duration
}

func NewDispatcher(outbox Outbox, pub Publisher, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		Outbox:       outbox,
		Publisher:    pub,
		Log:          log,
		BatchSize:    100,
		IdleInterval: 500 * time.Millisecond,
		RetryBackoff: 10 * time.Second,
	}
}

// Run dispatches until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		n, err := d.DispatchOnce(ctx)
		if err != nil {
			d.Log.Error("outbox dequeue failed", zap.Error(err))
		}

		wait := time.Duration(0)
		if err != nil {
			wait = time.Second
		} else if n == 0 {
			wait = d.IdleInterval
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// DispatchOnce publishes one batch and returns how many were published.
// Failed events are rescheduled after RetryBackoff.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (int, error) {
	messages, err := d.Outbox.DequeueOutbox(ctx, d.BatchSize)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, msg := range messages {
		if err := d.Publisher.Publish(msg.Subject, msg.Payload, msg.MsgID); err != nil {
			d.Log.Warn("publish failed", zap.Int64("outbox_id", msg.ID), zap.Error(err))
			if err := d.Outbox.MarkOutboxRetry(ctx, msg.ID, d.RetryBackoff); err != nil {
				d.Log.Error("mark retry failed", zap.Int64("outbox_id", msg.ID), zap.Error(err))
			}
			continue
		}

		if err := d.Outbox.MarkPublished(ctx, msg.ID); err != nil {
			d.Log.Error("mark published failed", zap.Int64("outbox_id", msg.ID), zap.Error(err))
			continue
		}
		published++
	}

	return published, nil
}
