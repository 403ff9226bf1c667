// Package mailer sends transactional email.
//
// The service layer depends only on the Mailer interface. Production uses
// SendGrid; without an API key the server falls back to LogMailer, which
// writes the message to the log so local development still shows the
// verification link.
package mailer

import (
	"context"
	"fmt"
	"html"
	"log/slog"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers a Message. Implementations must be safe for concurrent use.
// Failures are returned to the caller and never retried here.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// VerificationMessage builds the email that asks the owner of address to
// open link.
func VerificationMessage(to, link string) Message {
	return Message{
		To:      to,
		Subject: "Verify your email",
		HTML: fmt.Sprintf(
			`<p>Confirm your email address to finish setting up your account.</p><p><a target="_blank" href="%s">Click to verify your email</a></p>`,
			html.EscapeString(link),
		),
		Text: "Confirm your email address by opening this link: " + link,
	}
}

// LogMailer "sends" messages by logging them.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("email not sent (no provider configured)",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.Text),
	)
	return nil
}
