// Package service orchestrates repositories, the seating engine and the
// broker for the HTTP handlers.
package service

import (
    "context"
    "encoding/json"
    "errors"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"

    "github.com/anz-davar/event-management/internal/config"
    "github.com/anz-davar/event-management/internal/metrics"
    q "github.com/anz-davar/event-management/internal/queue"
)

// ErrBrokerDisabled is returned by a Publisher whose broker is switched off.
var ErrBrokerDisabled = errors.New("broker disabled")

// EventPublisher sends domain events to the broker.
type EventPublisher interface {
    PublishGuestRegistered(ctx context.Context, ev q.GuestRegisteredEvent) error
    PublishSeatingOptimized(ctx context.Context, ev q.SeatingOptimizedEvent) error
}

// Publisher publishes JSON messages to durable RabbitMQ queues.  Every
// publish dials its own connection; the volume is a few messages per
// registration or optimization.
type Publisher struct {
    cfg config.BrokerConfig
    log *zap.Logger
}

func NewPublisher(cfg config.BrokerConfig, logger *zap.Logger) *Publisher {
    if logger == nil {
        logger = zap.NewNop()
    }
    return &Publisher{cfg: cfg, log: logger.Named("publisher")}
}

func (p *Publisher) PublishGuestRegistered(ctx context.Context, ev q.GuestRegisteredEvent) error {
    return p.publish(ctx, p.cfg.GuestQueue, ev)
}

func (p *Publisher) PublishSeatingOptimized(ctx context.Context, ev q.SeatingOptimizedEvent) error {
    return p.publish(ctx, p.cfg.SeatingQueue, ev)
}

func (p *Publisher) publish(ctx context.Context, queue string, event any) (err error) {
    if !p.cfg.Enabled {
        return ErrBrokerDisabled
    }
    defer func() {
        status := "ok"
        if err != nil {
            status = "failed"
            p.log.Warn("publish failed", zap.String("queue", queue), zap.Error(err))
        }
        metrics.BrokerMessagesTotal.WithLabelValues(queue, "out", status).Inc()
    }()

    conn, err := amqp.Dial(p.cfg.URL)
    if err != nil {
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return err
    }
    defer func() { _ = ch.Close() }()

    // durable, not auto-deleted, not exclusive
    if _, err = ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
        return err
    }

    body, err := json.Marshal(event)
    if err != nil {
        return err
    }
    return ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    })
}
