package notification

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSender stands in for a provider that has no credentials configured. It
// logs the delivery instead of performing it.
type LogSender struct {
	logger zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger.With().Str("sender", "log").Logger()}
}

func (s *LogSender) SendSMS(_ context.Context, to, body string) error {
	s.logger.Info().Str("to", Mask(to)).Int("length", len(body)).Msg("sms not sent: provider not configured")
	return nil
}

func (s *LogSender) SendEmail(_ context.Context, msg *Message) error {
	s.logger.Info().
		Str("to", Mask(msg.Recipient)).
		Str("subject", msg.Subject).
		Int("inline", len(msg.Inline)).
		Msg("email not sent: provider not configured")
	return nil
}
