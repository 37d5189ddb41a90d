package notify

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/felicity-events/felicity-api/internal/config"
)

type Attachment struct {
	Name string
	Data []byte
}

type Email struct {
	To      string
	Subject string
	HTML    string
	// Inline attachments are referenced from HTML as cid:<Name>.
	Inline []Attachment
}

type Mailer interface {
	Send(ctx context.Context, email Email) error
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(conf *config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(conf.Host, conf.Port, conf.Username, conf.Password),
		from:   conf.From,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email.To)
	msg.SetHeader("Subject", email.Subject)
	msg.SetBody("text/html", email.HTML)
	for _, a := range email.Inline {
		data := a.Data
		msg.Embed(a.Name, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}))
	}

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("m.dialer.DialAndSend -> %w", err)
	}

	return nil
}

// LogMailer only logs outgoing emails. It is used when SMTP is disabled.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, email Email) error {
	zap.L().Info("email not sent, smtp disabled",
		zap.String("to", email.To),
		zap.String("subject", email.Subject),
		zap.Int("inline", len(email.Inline)),
	)

	return nil
}
