package notification

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridSender delivers email through the SendGrid v3 API.
type SendGridSender struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendGridSender(apiKey, fromEmail, fromName string) *SendGridSender {
	return &SendGridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromEmail),
	}
}

func (s *SendGridSender) SendEmail(ctx context.Context, msg *Message) error {
	resp, err := s.client.SendWithContext(ctx, buildMail(s.from, msg))
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid rejected message: status %d", resp.StatusCode)
	}
	return nil
}

// buildMail assembles a single-recipient message with a plain-text part, an
// optional HTML part and inline attachments.
func buildMail(from *mail.Email, msg *Message) *mail.SGMailV3 {
	to := mail.NewEmail(msg.RecipientName, msg.Recipient)
	m := mail.NewV3Mail()
	m.SetFrom(from)
	m.Subject = msg.Subject

	p := mail.NewPersonalization()
	p.AddTos(to)
	m.AddPersonalizations(p)

	m.AddContent(mail.NewContent("text/plain", msg.BodyText))
	if msg.BodyHTML != "" {
		m.AddContent(mail.NewContent("text/html", msg.BodyHTML))
	}

	for _, img := range msg.Inline {
		a := mail.NewAttachment()
		a.SetContent(base64.StdEncoding.EncodeToString(img.Data))
		a.SetType(img.ContentType)
		a.SetFilename(img.Filename)
		a.SetDisposition("inline")
		a.SetContentID(img.ContentID)
		m.AddAttachment(a)
	}
	return m
}
