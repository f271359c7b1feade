package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cargo-logistics-service/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Channel is the subset of *amqp.Channel used for publishing.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQNotifier queues notifications for the mail/SMS workers. Messages
// are persistent JSON on a durable queue.
type RabbitMQNotifier struct {
	conn  *amqp.Connection
	ch    Channel
	queue string
}

func NewRabbitMQNotifier(url, queue string) (*RabbitMQNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq declare queue %s: %w", queue, err)
	}

	return &RabbitMQNotifier{conn: conn, ch: ch, queue: queue}, nil
}

// NewRabbitMQNotifierWithChannel allows injecting a test channel.
func NewRabbitMQNotifierWithChannel(ch Channel, queue string) *RabbitMQNotifier {
	return &RabbitMQNotifier{ch: ch, queue: queue}
}

func (r *RabbitMQNotifier) Notify(ctx context.Context, n domain.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("notify %s: marshal: %w", n.Kind, err)
	}

	err = r.ch.PublishWithContext(
		ctx,
		"",      // exchange
		r.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Type:         n.Kind,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("notify %s: publish: %w", n.Kind, err)
	}
	return nil
}

func (r *RabbitMQNotifier) Close() error {
	var errs []error
	if r.ch != nil {
		errs = append(errs, r.ch.Close())
	}
	if r.conn != nil {
		errs = append(errs, r.conn.Close())
	}
	return errors.Join(errs...)
}

// LogNotifier writes notifications to the log instead of delivering them.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n domain.Notification) error {
	zap.L().Info("notification",
		zap.String("kind", n.Kind),
		zap.String("to", n.To),
		zap.String("subject", n.Subject),
	)
	return nil
}

func (LogNotifier) Close() error { return nil }
