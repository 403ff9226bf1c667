package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// sendClient is the part of *sendgrid.Client we call. Tests swap in a fake.
type sendClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGrid delivers mail through the SendGrid v3 API.
type SendGrid struct {
	client sendClient
	from   *mail.Email
	logger *slog.Logger
}

// NewSendGrid creates a SendGrid mailer. from is the verified sender
// address configured in the SendGrid account.
func NewSendGrid(apiKey, from string, logger *slog.Logger) (*SendGrid, error) {
	if apiKey == "" {
		return nil, errors.New("mailer: SendGrid API key is required")
	}
	if from == "" {
		return nil, errors.New("mailer: sender address is required")
	}
	return &SendGrid{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail("", from),
		logger: logger,
	}, nil
}

// Send delivers msg. A non-2xx API response is an error carrying the
// status code; the response body is logged, not returned.
func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	email := mail.NewSingleEmail(s.from, msg.Subject, mail.NewEmail("", msg.To), msg.Text, msg.HTML)

	resp, err := s.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("mailer: sending to %s: %w", msg.To, err)
	}
	if resp.StatusCode >= 300 {
		s.logger.Error("sendgrid rejected message",
			slog.Int("status", resp.StatusCode),
			slog.String("body", resp.Body),
		)
		return fmt.Errorf("mailer: sendgrid responded with status %d", resp.StatusCode)
	}

	s.logger.Debug("email sent", slog.String("to", msg.To), slog.String("subject", msg.Subject))
	return nil
}
