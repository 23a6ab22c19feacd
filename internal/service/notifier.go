package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"blog-api/internal/domain"
	"blog-api/internal/observability"
)

const (
	TemplateActivation    = "account_activation"
	TemplatePasswordReset = "password_reset_confirm"
)

var emailTemplates = template.Must(template.New("emails").Parse(`
{{define "account_activation"}}Hi {{.username}},

Thanks for signing up. Follow the link below to activate your account:

{{.link}}

If you did not create an account, ignore this email.
{{end}}
{{define "password_reset_confirm"}}Hi {{.username}},

Someone asked to reset the password of your account. Follow the link below to choose a new one:

{{.link}}

The link works once. If it was not you, ignore this email and your password stays unchanged.
{{end}}`))

// EncodeUID encodes a username for use in an emailed link
func EncodeUID(username string) string {
	return base64.URLEncoding.EncodeToString([]byte(username))
}

// DecodeUID reverses EncodeUID
func DecodeUID(uidb64 string) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(uidb64)
	if err != nil || len(raw) == 0 {
		return "", domain.ErrInvalidActionToken
	}
	return string(raw), nil
}

// Notifier renders account emails and hands them to the mail queue
type Notifier struct {
	publisher domain.EmailPublisher
	baseURL   string
}

func NewNotifier(publisher domain.EmailPublisher, publicBaseURL string) *Notifier {
	return &Notifier{
		publisher: publisher,
		baseURL:   strings.TrimRight(publicBaseURL, "/"),
	}
}

// ActivationLink is the URL the user follows to activate the account
func (n *Notifier) ActivationLink(user *domain.User, token string) string {
	return fmt.Sprintf("%s/api/v1/users/activate/%s/%s", n.baseURL, EncodeUID(user.Username), token)
}

// PasswordResetLink is the URL where the client confirms a new password
func (n *Notifier) PasswordResetLink(user *domain.User, token string) string {
	return fmt.Sprintf("%s/api/v1/users/password-reset/%s/%s", n.baseURL, EncodeUID(user.Username), token)
}

func (n *Notifier) SendActivation(ctx context.Context, user *domain.User, token string) error {
	return n.send(ctx, user, "Account activation", TemplateActivation, n.ActivationLink(user, token))
}

func (n *Notifier) SendPasswordReset(ctx context.Context, user *domain.User, token string) error {
	return n.send(ctx, user, "Password reset confirmation", TemplatePasswordReset, n.PasswordResetLink(user, token))
}

func (n *Notifier) send(ctx context.Context, user *domain.User, subject, name, link string) error {
	data := map[string]string{
		"username": user.Username,
		"email":    user.Email,
		"link":     link,
	}

	var body bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&body, name, data); err != nil {
		return fmt.Errorf("render %s email: %w", name, err)
	}

	err := n.publisher.PublishEmail(ctx, domain.EmailMessage{
		To:       user.Email,
		Subject:  subject,
		TextBody: body.String(),
		Template: name,
		Context:  data,
	})
	if err != nil {
		observability.FromContext(ctx).Error("failed to queue email",
			slog.String("template", name),
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}
