package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/mrz1836/postmark"
)

// PostmarkConfig holds the settings for the email sink.
type PostmarkConfig struct {
	ServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	AccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail  string `env:"NOTIFY_SENDER_EMAIL"`
	AlertEmail   string `env:"NOTIFY_ALERT_EMAIL"`
}

// Configured reports whether enough settings are present to build the sink.
func (c PostmarkConfig) Configured() bool {
	return c.ServerToken != "" && c.SenderEmail != "" && c.AlertEmail != ""
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// PostmarkSink delivers events as transactional email alerts.
type PostmarkSink struct {
	client *postmark.Client
	config PostmarkConfig
}

// NewPostmarkSink creates an email-backed sink. Tokens and addresses are
// required so misconfiguration fails at startup instead of silently dropping
// alerts in production.
func NewPostmarkSink(cfg PostmarkConfig) (*PostmarkSink, error) {
	if cfg.ServerToken == "" {
		return nil, fmt.Errorf("%w: ServerToken is required", ErrInvalidConfig)
	}
	if !emailRegex.MatchString(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}
	if !emailRegex.MatchString(cfg.AlertEmail) {
		return nil, fmt.Errorf("%w: AlertEmail must be a valid email address", ErrInvalidConfig)
	}

	return &PostmarkSink{
		client: postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		config: cfg,
	}, nil
}

// Notify sends the event to the alert address.
func (s *PostmarkSink) Notify(ctx context.Context, event Event) error {
	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     s.config.SenderEmail,
		To:       s.config.AlertEmail,
		Subject:  event.Subject(),
		Tag:      string(event.Kind),
		TextBody: event.Body(),
		HTMLBody: "<pre>" + html.EscapeString(event.Body()) + "</pre>",
	})
	if err != nil {
		return errors.Join(ErrDeliveryFailed, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrDeliveryFailed,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, strings.TrimSpace(resp.Message)))
	}
	return nil
}
