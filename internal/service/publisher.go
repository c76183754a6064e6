package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/event-ticketing-admin/internal/logger"
	"github.com/iliyamo/event-ticketing-admin/internal/queue"
)

// AMQPPublisher publishes schedule.saved events.  Each publish dials its own
// connection.
type AMQPPublisher struct {
	URL string
}

func NewAMQPPublisher(url string) *AMQPPublisher { return &AMQPPublisher{URL: url} }

// PublishScheduleSaved sends ev as a persistent message.  Errors are logged
// and returned so the caller can decide to ignore them.
func (p *AMQPPublisher) PublishScheduleSaved(ctx context.Context, ev queue.ScheduleSavedEvent) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		logger.Warn("rabbitmq: dial failed", "error", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logger.Warn("rabbitmq: channel open failed", "error", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue.ScheduleSavedQueue, true, false, false, false, nil); err != nil {
		logger.Warn("rabbitmq: queue declare failed", "error", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := ch.PublishWithContext(ctx, "", queue.ScheduleSavedQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}); err != nil {
		logger.Warn("rabbitmq: publish failed", "error", err, "event_id", ev.EventID)
		return err
	}
	return nil
}
