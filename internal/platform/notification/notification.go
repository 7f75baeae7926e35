// Package notification delivers booking confirmations over SMS or email.
// Delivery is at-most-once: no retry, no queue, no persistence.
package notification

import (
	"context"
	_ "embed"
	"strings"
)

// Channel is the transport used to reach a recipient.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// Recipient is the contact data of the person being notified.
type Recipient struct {
	Name  string
	Email string
	Phone string
}

// InlineImage is an attachment referenced from HTML as cid:<ContentID>.
type InlineImage struct {
	ContentID   string
	Filename    string
	ContentType string
	Data        []byte
}

// Message is a rendered notification. It lives only for one dispatch attempt.
type Message struct {
	Channel       Channel
	Recipient     string
	RecipientName string
	Subject       string
	BodyText      string
	BodyHTML      string
	Inline        []InlineImage
}

// EmailSender delivers email messages carrying text, HTML and inline images.
type EmailSender interface {
	SendEmail(ctx context.Context, msg *Message) error
}

// SMSSender is the interface for sending SMS messages.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

//go:embed assets/logo.png
var logoPNG []byte

// Logo is the branding image embedded in confirmation emails.
func Logo() InlineImage {
	return InlineImage{
		ContentID:   "logo",
		Filename:    "logo.png",
		ContentType: "image/png",
		Data:        logoPNG,
	}
}

// Mask hides all but the last four characters of an address for logging.
func Mask(addr string) string {
	if at := strings.IndexByte(addr, '@'); at > 0 {
		return addr[:1] + "***" + addr[at:]
	}
	if len(addr) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(addr)-4) + addr[len(addr)-4:]
}
