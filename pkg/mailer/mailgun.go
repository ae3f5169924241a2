package mailer

import (
	"context"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

// Sender delivers one rendered email.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Mailgun wraps Mailgun client configuration.
type Mailgun struct {
	Domain string
	APIKey string
	Sender string

	client *mg.MailgunImpl
}

func NewMailgun(domain, apiKey, sender string) *Mailgun {
	return &Mailgun{Domain: domain, APIKey: apiKey, Sender: sender, client: mg.NewMailgun(domain, apiKey)}
}

// Send sends an email via Mailgun. html is optional; if provided it will be used as HTML body.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	msg := m.client.NewMessage(m.Sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, _, err := m.client.Send(c, msg)
	return err
}

var _ Sender = (*Mailgun)(nil)
