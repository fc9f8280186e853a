// Package notify delivers one-time codes by email and SMS.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/codeWithMuze/Prompteon/internal/config"
	"github.com/wneessen/go-mail"
)

const senderName = "Prompteon Security"

type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender sends plain-text mail through an authenticated SMTP relay.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	if from == "" {
		from = username
	}
	return &SMTPSender{host: host, port: port, username: username, password: password, from: from}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(senderName, s.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(s.host,
		mail.WithPort(s.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.username),
		mail.WithPassword(s.password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	slog.Info("email sent", "to", to)
	return nil
}

// LogEmailSender writes the message to the log instead of sending it.
type LogEmailSender struct{}

func (LogEmailSender) Send(_ context.Context, to, subject, body string) error {
	slog.Info("email mock", "to", to, "subject", subject, "body", body)
	return nil
}

// NewEmailSender picks SMTP when it is configured and the log mock otherwise.
func NewEmailSender(cfg *config.Config) EmailSender {
	if cfg.SMTPHost == "" || cfg.SMTPUser == "" || cfg.SMTPPassword == "" {
		slog.Warn("SMTP not configured, emails will be logged")
		return LogEmailSender{}
	}
	return NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
}
