package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"

    "github.com/anz-davar/event-management/internal/config"
    "github.com/anz-davar/event-management/internal/metrics"
    "github.com/anz-davar/event-management/internal/notify"
)

// Broadcaster pushes a payload to every websocket client of a room.
type Broadcaster interface {
    Broadcast(room, event string, data any) (int, error)
}

// Consumer listens to the guest and seating queues.  Each message is
// appended to the activity log as a single line and forwarded to the
// websocket room of its event.
type Consumer struct {
    cfg config.BrokerConfig
    hub Broadcaster
    log *zap.Logger

    mu sync.Mutex // serializes writes to the activity log
}

// NewConsumer returns a consumer.  hub may be nil when no websocket hub
// runs in this process.
func NewConsumer(cfg config.BrokerConfig, hub Broadcaster, logger *zap.Logger) *Consumer {
    if logger == nil {
        logger = zap.NewNop()
    }
    return &Consumer{cfg: cfg, hub: hub, log: logger.Named("activity-consumer")}
}

// Run dials the broker and consumes until ctx is cancelled.  Dial failures
// back off exponentially up to 30s; a broken channel triggers a reconnect.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        if err := ctx.Err(); err != nil {
            return err
        }
        conn, err := amqp.Dial(c.cfg.URL)
        if err != nil {
            c.log.Warn("dial broker failed", zap.Error(err), zap.Duration("retry_in", backoff))
            if !sleepCtx(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.log.Warn("consume loop ended, reconnecting", zap.Error(err))
        if !sleepCtx(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.log.Warn("set QoS failed", zap.Error(err))
    }

    guests, err := declareAndConsume(ch, c.cfg.GuestQueue)
    if err != nil {
        return err
    }
    seating, err := declareAndConsume(ch, c.cfg.SeatingQueue)
    if err != nil {
        return err
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-guests:
            if !ok {
                return errors.New("guest deliveries channel closed")
            }
            c.deliver(c.cfg.GuestQueue, d)
        case d, ok := <-seating:
            if !ok {
                return errors.New("seating deliveries channel closed")
            }
            c.deliver(c.cfg.SeatingQueue, d)
        }
    }
}

func declareAndConsume(ch *amqp.Channel, queue string) (<-chan amqp.Delivery, error) {
    if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
        return nil, fmt.Errorf("queue declare %s: %w", queue, err)
    }
    msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
    if err != nil {
        return nil, fmt.Errorf("queue consume %s: %w", queue, err)
    }
    return msgs, nil
}

func (c *Consumer) deliver(queue string, d amqp.Delivery) {
    if err := c.Handle(queue, d.Body); err != nil {
        c.log.Error("handle message failed", zap.String("queue", queue), zap.Error(err))
        metrics.BrokerMessagesTotal.WithLabelValues(queue, "in", "rejected").Inc()
        _ = d.Nack(false, false) // no requeue, a poison message would loop
        return
    }
    metrics.BrokerMessagesTotal.WithLabelValues(queue, "in", "ok").Inc()
    _ = d.Ack(false)
}

// Handle decodes one message body according to its queue, appends the
// activity line and broadcasts the payload.  Broadcast failures are logged,
// not returned.
func (c *Consumer) Handle(queue string, body []byte) error {
    var (
        line    string
        eventID uint64
        name    string
        payload any
    )
    switch queue {
    case c.cfg.GuestQueue:
        var ev GuestRegisteredEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return fmt.Errorf("unmarshal: %w", err)
        }
        line, eventID, payload = guestLine(ev), ev.EventID, ev
        name = notify.GuestRegistered
        if ev.Family {
            name = notify.FamilyRegistered
        }
    case c.cfg.SeatingQueue:
        var ev SeatingOptimizedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return fmt.Errorf("unmarshal: %w", err)
        }
        line, eventID, payload = seatingLine(ev), ev.EventID, ev
        name = notify.SeatingOptimized
    default:
        return fmt.Errorf("unknown queue %q", queue)
    }
    if eventID == 0 {
        return errors.New("message without event_id")
    }

    if err := c.appendLine(line); err != nil {
        return err
    }
    if c.hub != nil {
        if _, err := c.hub.Broadcast(notify.RoomForEvent(eventID), name, payload); err != nil {
            c.log.Warn("broadcast failed", zap.Uint64("event_id", eventID), zap.Error(err))
        }
    }
    return nil
}

func (c *Consumer) appendLine(line string) error {
    c.mu.Lock()
    defer c.mu.Unlock()
    if err := os.MkdirAll(filepath.Dir(c.cfg.ActivityLog), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(c.cfg.ActivityLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

func guestLine(ev GuestRegisteredEvent) string {
    names := make([]string, 0, len(ev.Guests))
    for _, g := range ev.Guests {
        names = append(names, g.Name)
    }
    kind := "Guest registered"
    if ev.Family {
        kind = "Family registered"
    }
    return fmt.Sprintf("[%s] %s | event_id=%d | event=%q | guests=[%s]\n",
        ev.RegisteredAt, kind, ev.EventID, ev.EventName, strings.Join(names, ","))
}

func seatingLine(ev SeatingOptimizedEvent) string {
    return fmt.Sprintf("[%s] Seating optimized | event_id=%d | run_id=%s | guests=%d | score=%.0f (from %.0f) | iterations=%d | diagnostics=%d\n",
        ev.FinishedAt, ev.EventID, ev.RunID, ev.GuestCount, ev.Score, ev.InitialScore, ev.Iterations, ev.Diagnostics)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
