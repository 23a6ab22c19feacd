package domain

import "context"

// EmailMessage is a rendered email queued for delivery
type EmailMessage struct {
	To       string            `json:"to"`
	Subject  string            `json:"subject"`
	TextBody string            `json:"text_body"`
	Template string            `json:"template"`
	Context  map[string]string `json:"context,omitempty"`
}

// EmailPublisher hands an email off for asynchronous delivery
type EmailPublisher interface {
	PublishEmail(ctx context.Context, msg EmailMessage) error
}
