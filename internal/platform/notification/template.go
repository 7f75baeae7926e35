package notification

import (
	"fmt"
	"html"
	"strings"
	"sync"
)

const (
	TemplateBookingSMS   = "booking-confirmation-sms"
	TemplateBookingEmail = "booking-confirmation-email"
)

// Template defines a reusable notification template. Placeholders use the
// {{key}} form. HTML is optional and only used for email.
type Template struct {
	ID      string
	Name    string
	Channel Channel
	Subject string
	Body    string
	HTML    string
}

// Rendered holds a template after placeholder substitution.
type Rendered struct {
	Subject string
	Text    string
	HTML    string
}

// TemplateEngine manages notification templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the booking templates registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		templates: make(map[string]*Template),
	}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      TemplateBookingSMS,
			Name:    "Booking Confirmation (SMS)",
			Channel: ChannelSMS,
			Body:    "Hello {{patient_name}}, your consultation with {{doctor_name}} on {{date}} is confirmed. - ConnectCare",
		},
		{
			ID:      TemplateBookingEmail,
			Name:    "Booking Confirmation (Email)",
			Channel: ChannelEmail,
			Subject: "Consultation Booking Confirmation",
			Body: "Hello {{patient_name}},\n\n" +
				"Your consultation with {{doctor_name}} on {{date}} has been booked.\n\n" +
				"Thank you for choosing ConnectCare.",
			HTML: `<div style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto">` +
				`<img src="cid:logo" alt="ConnectCare" width="48" height="48">` +
				`<h2>Consultation Booking Confirmation</h2>` +
				`<p>Hello {{patient_name}},</p>` +
				`<p>Your consultation with <strong>{{doctor_name}}</strong> on <strong>{{date}}</strong> has been booked.</p>` +
				`<p>Thank you for choosing ConnectCare.</p></div>`,
		},
	}
	for _, t := range builtIn {
		e.register(t)
	}
}

// register adds or replaces a template in the engine.
func (e *TemplateEngine) register(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template by ID and substitutes {{key}} placeholders.
// Values are HTML-escaped in the HTML variant. Keys absent from data are left
// as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (*Rendered, error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("template %q not found", templateID)
	}

	plain := make([]string, 0, len(data)*2)
	escaped := make([]string, 0, len(data)*2)
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		plain = append(plain, placeholder, v)
		escaped = append(escaped, placeholder, html.EscapeString(v))
	}
	pr := strings.NewReplacer(plain...)

	out := &Rendered{
		Subject: pr.Replace(t.Subject),
		Text:    pr.Replace(t.Body),
	}
	if t.HTML != "" {
		out.HTML = strings.NewReplacer(escaped...).Replace(t.HTML)
	}
	return out, nil
}
