package smtp

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	c "recoverme/internal/core/domain/common"
	e "recoverme/internal/core/domain/errors"
	resettoken "recoverme/internal/core/domain/reset_token"
	"text/template"
	"time"

	"gopkg.in/gomail.v2"
)

const subject = "Password reset"

var bodyTemplate = template.Must(template.New("password_reset").Parse(
	`Someone requested a password reset for your account.

Open the link below to choose a new password:

{{.Link}}

The link expires at {{.ExpiresAt}} and can be used once.
If you did not request a reset, you can ignore this email.
`))

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type EmailSender struct {
	dialer               dialer
	from                 string
	passwordResetBaseUrl url.URL
}

func NewEmailSender(config Config, passwordResetBaseUrl url.URL) *EmailSender {
	if config.Host == "" {
		panic(e.NewInvalidArgumentError("config.Host", "must not be empty"))
	}
	if config.From == "" {
		panic(e.NewInvalidArgumentError("config.From", "must not be empty"))
	}
	return &EmailSender{
		dialer:               gomail.NewDialer(config.Host, config.Port, config.Username, config.Password),
		from:                 config.From,
		passwordResetBaseUrl: passwordResetBaseUrl,
	}
}

// SendPasswordResetLink ignores ctx, gomail has no cancellation support.
func (s *EmailSender) SendPasswordResetLink(
	ctx context.Context,
	to c.Email,
	token resettoken.RawToken,
	expiresAt time.Time,
) error {
	msg, err := s.newMessage(to, token, expiresAt)
	if err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("could not send password reset email: %w", err)
	}
	return nil
}

func (s *EmailSender) newMessage(to c.Email, token resettoken.RawToken, expiresAt time.Time) (*gomail.Message, error) {
	body, err := s.renderBody(token, expiresAt)
	if err != nil {
		return nil, err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", string(to))
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return msg, nil
}

func (s *EmailSender) renderBody(token resettoken.RawToken, expiresAt time.Time) (string, error) {
	var body bytes.Buffer
	err := bodyTemplate.Execute(&body, struct {
		Link      string
		ExpiresAt string
	}{
		Link:      resettoken.Link(s.passwordResetBaseUrl, token),
		ExpiresAt: expiresAt.UTC().Format(time.RFC1123),
	})
	return body.String(), err
}
