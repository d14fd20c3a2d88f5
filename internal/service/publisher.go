package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/auditory-booking/internal/queue"
)

// EventPublisher delivers committed booking events.  Publish errors are
// reported to the caller, which logs and otherwise ignores them.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

// NopPublisher drops every event.  It is used when the broker is disabled.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(context.Context, queue.BookingEvent) error { return nil }

// RabbitPublisher publishes events to a durable RabbitMQ queue through the
// default exchange.  Each publish opens its own connection, so a broker
// outage never leaves stale state behind.  The whole exchange, handshake
// included, is bounded by the caller's context.
type RabbitPublisher struct {
	URL   string
	Queue string
	Log   *zap.Logger
}

// NewRabbitPublisher returns a publisher for the given broker and queue.
func NewRabbitPublisher(url, queueName string, log *zap.Logger) *RabbitPublisher {
	return &RabbitPublisher{URL: url, Queue: queueName, Log: log}
}

// Publish implements EventPublisher.  Messages are marked persistent.
func (p *RabbitPublisher) Publish(ctx context.Context, ev queue.BookingEvent) error {
	log := p.Log.With(zap.String("event", ev.Type), zap.String("booking_id", ev.BookingID))

	conn, err := queue.Dial(ctx, p.URL)
	if err != nil {
		log.Warn("rabbitmq: dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Warn("rabbitmq: channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		p.Queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		log.Warn("rabbitmq: queue declare failed", zap.Error(err))
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
		log.Warn("rabbitmq: publish failed", zap.Error(err))
		return err
	}
	return nil
}
