package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"blog-api/internal/domain"
	"blog-api/internal/observability"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Mailer delivers a single email
type Mailer interface {
	Deliver(ctx context.Context, msg domain.EmailMessage) error
}

// ErrPermanent marks a delivery failure that retrying cannot fix. Such
// messages are dropped instead of requeued.
var ErrPermanent = errors.New("permanent delivery failure")

// EmailWorker drains the outbound mail queue
type EmailWorker struct {
	mailer  Mailer
	timeout time.Duration
}

func NewEmailWorker(mailer Mailer, timeout time.Duration) *EmailWorker {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &EmailWorker{mailer: mailer, timeout: timeout}
}

// Run handles deliveries until ctx is done or the channel closes
func (w *EmailWorker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping email consumer")
			return
		case d, ok := <-deliveries:
			if !ok {
				slog.Info("email delivery channel closed")
				return
			}
			w.handle(ctx, d)
		}
	}
}

func (w *EmailWorker) handle(ctx context.Context, d amqp.Delivery) {
	var msg domain.EmailMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil || msg.To == "" {
		slog.Warn("dropping malformed email job", slog.Any("error", err))
		observability.EmailsDelivered.WithLabelValues(d.Type, "malformed").Inc()
		nack(d, false)
		return
	}

	msgCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	err := w.mailer.Deliver(msgCtx, msg)
	switch {
	case err == nil:
		observability.EmailsDelivered.WithLabelValues(msg.Template, "success").Inc()
		if ackErr := d.Ack(false); ackErr != nil {
			slog.Error("failed to ack email job", slog.String("error", ackErr.Error()))
		}
	case errors.Is(err, ErrPermanent):
		slog.Error("dropping undeliverable email",
			slog.String("template", msg.Template),
			slog.String("error", err.Error()))
		observability.EmailsDelivered.WithLabelValues(msg.Template, "dropped").Inc()
		nack(d, false)
	default:
		slog.Warn("email delivery failed, requeueing",
			slog.String("template", msg.Template),
			slog.Bool("redelivered", d.Redelivered),
			slog.String("error", err.Error()))
		observability.EmailsDelivered.WithLabelValues(msg.Template, "retry").Inc()
		// A second failure drops the job so a poisoned message cannot spin
		nack(d, !d.Redelivered)
	}
}

func nack(d amqp.Delivery, requeue bool) {
	if err := d.Nack(false, requeue); err != nil {
		slog.Error("failed to nack email job", slog.String("error", err.Error()))
	}
}

// LogMailer writes emails to the structured log. It stands in for an SMTP
// relay in development.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Deliver(ctx context.Context, msg domain.EmailMessage) error {
	if msg.To == "" {
		return fmt.Errorf("email without recipient: %w", ErrPermanent)
	}
	m.logger.InfoContext(ctx, "email delivered",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("template", msg.Template),
		slog.String("link", msg.Context["link"]),
	)
	return nil
}
