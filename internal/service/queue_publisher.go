package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mrperfect/storefront/internal/queue"
)

// EventPublisher delivers committed domain changes to the notification
// queue.  Publishing is best effort; services log failures and carry on.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// AMQPPublisher publishes to RabbitMQ, dialing per message.  Event volume is
// a handful per admin action, so a pooled connection is not worth its
// reconnect logic.
type AMQPPublisher struct {
	URL string
}

func (p AMQPPublisher) Publish(ctx context.Context, ev queue.Event) error {
	conn, err := amqp.DialConfig(p.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(2 * time.Second),
	})
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queue.NotificationQueue, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return ch.PublishWithContext(ctx,
		"",                      // default exchange
		queue.NotificationQueue, // routing key = queue name
		false,                   // mandatory
		false,                   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Type:         ev.Type,
			Body:         body,
		})
}

// NoopPublisher drops events; used when EVENTS_ENABLED=false.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, queue.Event) error { return nil }

// publish stamps and sends ev, logging instead of failing.  The request
// context may already be done once the response is decided, so the send
// gets its own short deadline.
func publish(pub EventPublisher, logger *log.Logger, ev queue.Event) {
	if pub == nil {
		return
	}
	if ev.OccurredAt == "" {
		ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := pub.Publish(ctx, ev); err != nil {
		logger.Warnj(log.JSON{"event": "events.publish_failed", "type": ev.Type, "error": err.Error()})
	}
}
