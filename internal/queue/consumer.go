package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "log/slog"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer reads booking events and appends one line per event to a log
// file.  The file stands in for guest notifications.
type Consumer struct {
    url     string
    logPath string
    logger  *slog.Logger
}

// NewConsumer returns a Consumer writing to logPath.  An empty url selects
// DefaultURL.
func NewConsumer(url, logPath string, logger *slog.Logger) *Consumer {
    if url == "" {
        url = DefaultURL
    }
    return &Consumer{url: url, logPath: logPath, logger: logger}
}

// Run connects to RabbitMQ, declares the booking queue and consumes until
// ctx is cancelled.  Broker failures are retried with exponential backoff
// capped at 30s.  A message that cannot be handled is rejected without
// requeue so a poison message cannot spin the loop.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        if err := ctx.Err(); err != nil {
            return err
        }
        conn, err := amqp.Dial(c.url)
        if err != nil {
            c.logger.Warn("booking consumer: dial failed", "err", err, "retry_in", backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.logger.Warn("booking consumer: consume loop ended, reconnecting", "err", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.logger.Warn("booking consumer: set QoS failed", "err", err)
    }
    if _, err := ch.QueueDeclare(BookingQueueName, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(BookingQueueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.handle(d.Body); err != nil {
                c.logger.Error("booking consumer: handle message failed", "err", err)
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func (c *Consumer) handle(body []byte) error {
    var ev BookingEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if err := os.MkdirAll(filepath.Dir(c.logPath), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(c.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    return WriteLine(f, ev)
}

// WriteLine formats ev as a single human friendly line.
func WriteLine(w io.Writer, ev BookingEvent) error {
    line := fmt.Sprintf("[%s] %s | booking=%s | venue=%s | status=%s | guests=%d",
        ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type, ev.BookingID, ev.VenueID, ev.Status, ev.Guests)
    if ev.Type == BookingModificationsProcessed {
        line += fmt.Sprintf(" | previous_guests=%d", ev.PreviousGuests)
    }
    _, err := io.WriteString(w, line+"\n")
    return err
}
