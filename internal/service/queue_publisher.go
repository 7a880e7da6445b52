package service

import (
    "context"
    "log/slog"
    "time"

    "github.com/pull-events/pull-api/internal/queue"
)

// EventPublisher delivers booking events to the message broker.
// *queue.Publisher is the RabbitMQ implementation.
type EventPublisher interface {
    Publish(ctx context.Context, ev queue.BookingEvent) error
}

// NopPublisher drops every event.  It is used when no broker is
// configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.BookingEvent) error { return nil }

// publishAfterCommit sends ev best-effort.  It runs after the transaction
// has committed, so a broker failure is logged and never fails the
// request.  The publish gets its own short deadline detached from the
// request context.
func publishAfterCommit(ctx context.Context, pub EventPublisher, log *slog.Logger, ev queue.BookingEvent) {
    if pub == nil {
        return
    }
    if ev.OccurredAt.IsZero() {
        ev.OccurredAt = time.Now().UTC()
    }
    pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
    defer cancel()
    if err := pub.Publish(pctx, ev); err != nil {
        log.Warn("publish booking event failed", "type", ev.Type, "booking", ev.BookingID, "err", err)
    }
}
