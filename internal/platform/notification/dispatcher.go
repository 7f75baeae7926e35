package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/connectcare/telehealth/internal/platform/metrics"
)

// Outcome summarizes one dispatch attempt.
type Outcome string

const (
	OutcomeSent    Outcome = "sent"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// DateLayout is how appointment dates appear in messages.
const DateLayout = "Monday, January 2, 2006"

// SelectChannel picks the channel for r: SMS when a phone is on file, else
// email, else none.
func SelectChannel(r Recipient) (Channel, string, bool) {
	switch {
	case r.Phone != "":
		return ChannelSMS, r.Phone, true
	case r.Email != "":
		return ChannelEmail, r.Email, true
	default:
		return "", "", false
	}
}

// Dispatcher renders and sends booking confirmations. Transport failures are
// logged and reported through the Outcome, never returned as errors.
type Dispatcher struct {
	sms       SMSSender
	email     EmailSender
	templates *TemplateEngine
	logger    zerolog.Logger
	metrics   *metrics.Metrics
}

func NewDispatcher(sms SMSSender, email EmailSender, logger zerolog.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		sms:       sms,
		email:     email,
		templates: NewTemplateEngine(),
		logger:    logger,
		metrics:   m,
	}
}

// NotifyBooking sends a confirmation of a consultation with doctorName on
// date to r over the channel chosen by SelectChannel.
func (d *Dispatcher) NotifyBooking(ctx context.Context, r Recipient, doctorName string, date time.Time) Outcome {
	logger := d.logger
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		logger = *l
	}

	channel, to, ok := SelectChannel(r)
	if !ok {
		logger.Info().Msg("booking notification skipped: no contact channel on file")
		d.metrics.Notification("none", string(OutcomeSkipped))
		return OutcomeSkipped
	}

	data := map[string]string{
		"patient_name": r.Name,
		"doctor_name":  doctorName,
		"date":         date.Format(DateLayout),
	}

	err := d.send(ctx, channel, to, r.Name, data)
	evt := logger.Info()
	outcome := OutcomeSent
	if err != nil {
		evt = logger.Warn().Err(err)
		outcome = OutcomeFailed
	}
	evt.Str("channel", string(channel)).
		Str("recipient", Mask(to)).
		Str("outcome", string(outcome)).
		Msg("booking notification")

	d.metrics.Notification(string(channel), string(outcome))
	return outcome
}

func (d *Dispatcher) send(ctx context.Context, channel Channel, to, name string, data map[string]string) error {
	switch channel {
	case ChannelSMS:
		if d.sms == nil {
			return fmt.Errorf("no sms sender configured")
		}
		r, err := d.templates.Render(TemplateBookingSMS, data)
		if err != nil {
			return err
		}
		return d.sms.SendSMS(ctx, to, r.Text)

	case ChannelEmail:
		if d.email == nil {
			return fmt.Errorf("no email sender configured")
		}
		r, err := d.templates.Render(TemplateBookingEmail, data)
		if err != nil {
			return err
		}
		return d.email.SendEmail(ctx, &Message{
			Channel:       ChannelEmail,
			Recipient:     to,
			RecipientName: name,
			Subject:       r.Subject,
			BodyText:      r.Text,
			BodyHTML:      r.HTML,
			Inline:        []InlineImage{Logo()},
		})
	}
	return fmt.Errorf("unsupported channel %q", channel)
}
