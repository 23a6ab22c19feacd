package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"blog-api/internal/domain"
	"blog-api/internal/observability"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EmailExchange   = "blog.email"
	EmailQueue      = "email.outbound"
	EmailRoutingKey = "email.send"
)

// RabbitMQ publishes outbound email jobs
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewRabbitMQ(url string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	rmq := &RabbitMQ{
		conn:    conn,
		channel: ch,
	}

	if err := rmq.Setup(); err != nil {
		rmq.Close()
		return nil, err
	}

	return rmq, nil
}

// NewRabbitMQWithRetry dials until the broker accepts the connection or ctx
// is done, doubling the pause between attempts up to five seconds.
func NewRabbitMQWithRetry(ctx context.Context, url string) (*RabbitMQ, error) {
	backoff := 250 * time.Millisecond
	for attempt := 1; ; attempt++ {
		rmq, err := NewRabbitMQ(url)
		if err == nil {
			return rmq, nil
		}

		slog.Warn("rabbitmq not ready, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("backoff", backoff),
			slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("giving up on rabbitmq after %d attempts: %w", attempt, err)
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > 5*time.Second {
			backoff = 5 * time.Second
		}
	}
}

func (r *RabbitMQ) Setup() error {
	if err := r.channel.ExchangeDeclare(
		EmailExchange, // name
		"direct",      // type
		true,          // durable
		false,         // auto-deleted
		false,         // internal
		false,         // no-wait
		nil,           // arguments
	); err != nil {
		return fmt.Errorf("failed to declare email exchange: %w", err)
	}

	if _, err := r.channel.QueueDeclare(
		EmailQueue, // name
		true,       // durable
		false,      // delete when unused
		false,      // exclusive
		false,      // no-wait
		nil,        // arguments
	); err != nil {
		return fmt.Errorf("failed to declare %s queue: %w", EmailQueue, err)
	}

	if err := r.channel.QueueBind(
		EmailQueue,      // queue name
		EmailRoutingKey, // routing key
		EmailExchange,   // exchange
		false,
		nil,
	); err != nil {
		return fmt.Errorf("failed to bind %s queue: %w", EmailQueue, err)
	}

	slog.Info("rabbitmq setup completed successfully")
	return nil
}

// PublishEmail queues msg for the mail workers
func (r *RabbitMQ) PublishEmail(ctx context.Context, msg domain.EmailMessage) error {
	publishing, err := emailPublishing(msg)
	if err != nil {
		return err
	}

	err = r.channel.PublishWithContext(ctx, EmailExchange, EmailRoutingKey, false, false, publishing)
	if err != nil {
		observability.EmailsPublished.WithLabelValues(msg.Template, "error").Inc()
		return fmt.Errorf("failed to publish email: %w", err)
	}

	observability.EmailsPublished.WithLabelValues(msg.Template, "ok").Inc()
	slog.Info("queued email",
		slog.String("template", msg.Template),
		slog.String("subject", msg.Subject))
	return nil
}

// ConsumeEmails registers a consumer on the outbound queue. Deliveries must
// be acknowledged by the caller.
func (r *RabbitMQ) ConsumeEmails() (<-chan amqp.Delivery, error) {
	msgs, err := r.channel.Consume(
		EmailQueue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register consumer: %w", err)
	}
	return msgs, nil
}

func (r *RabbitMQ) IsClosed() bool {
	return r.conn == nil || r.conn.IsClosed()
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

func emailPublishing(msg domain.EmailMessage) (amqp.Publishing, error) {
	if msg.To == "" {
		return amqp.Publishing{}, fmt.Errorf("email without recipient: %w", domain.ErrInvalidInput)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal email: %w", err)
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         msg.Template,
		Body:         body,
	}, nil
}
