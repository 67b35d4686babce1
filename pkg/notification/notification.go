// Package notification delivers a message over several channels.
//
// Define a Notification:
//
//	type LowStockAlert struct{ Product models.Product }
//	func (n LowStockAlert) Via() []string { return []string{notification.Mail, notification.Slack} }
//	func (n LowStockAlert) ToMail() (notification.MailData, error) { ... }
//	func (n LowStockAlert) ToSlack() notification.SlackData { ... }
//
// Send:
//
//	err := notifier.Send(ctx, "admin@example.com", LowStockAlert{Product: p})
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	shophttp "github.com/shashiranjanraj/shopfront/pkg/http"
	"github.com/shashiranjanraj/shopfront/pkg/logger"
	"github.com/shashiranjanraj/shopfront/pkg/mail"
)

// Channel names returned by Via.
const (
	Mail  = "mail"
	Slack = "slack"
)

// MailData carries the data needed to send an email notification.
type MailData struct {
	To      string // overrides the notifiable address if set
	Subject string
	HTML    string
	Text    string
}

// SlackData carries a Slack message payload.
type SlackData struct {
	Text        string
	Attachments []SlackAttachment
}

// SlackAttachment is a single Slack message attachment block.
type SlackAttachment struct {
	Color  string `json:"color,omitempty"` // "good" | "warning" | "danger"
	Title  string `json:"title,omitempty"`
	Text   string `json:"text,omitempty"`
	Footer string `json:"footer,omitempty"`
}

// Notification is the interface every notification must satisfy.
type Notification interface {
	Via() []string
}

// Mailable can be implemented to support the mail channel.
type Mailable interface {
	ToMail() (MailData, error)
}

// Slackable can be implemented to support the Slack channel.
type Slackable interface {
	ToSlack() SlackData
}

// Notifier sends notifications. The slack channel is skipped when no
// webhook URL is configured.
type Notifier struct {
	mailer   mail.Mailer
	slackURL string
}

func New(mailer mail.Mailer, slackWebhookURL string) *Notifier {
	return &Notifier{mailer: mailer, slackURL: slackWebhookURL}
}

// Send dispatches n through every channel returned by Via. Channel
// failures are joined; one failing channel does not stop the others.
func (s *Notifier) Send(ctx context.Context, address string, n Notification) error {
	var errs []error
	for _, channel := range n.Via() {
		if err := s.dispatch(ctx, address, channel, n); err != nil {
			logger.WithCtx(ctx).Error("notification: channel failed",
				"channel", channel, "notification", fmt.Sprintf("%T", n), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Notifier) dispatch(ctx context.Context, address, channel string, n Notification) error {
	switch channel {
	case Mail:
		m, ok := n.(Mailable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement Mailable", n)
		}
		data, err := m.ToMail()
		if err != nil {
			return fmt.Errorf("notification: render mail: %w", err)
		}
		return s.sendMail(ctx, address, data)

	case Slack:
		if s.slackURL == "" {
			return nil
		}
		sl, ok := n.(Slackable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement Slackable", n)
		}
		return s.sendSlack(ctx, sl.ToSlack())

	default:
		return fmt.Errorf("notification: unknown channel %q", channel)
	}
}

func (s *Notifier) sendMail(ctx context.Context, address string, d MailData) error {
	if s.mailer == nil {
		return fmt.Errorf("notification: no mailer configured")
	}
	to := d.To
	if to == "" {
		to = address
	}
	return s.mailer.Send(ctx, mail.To(to).Subject(d.Subject).HTML(d.HTML).Text(d.Text))
}

type slackPayload struct {
	Text        string            `json:"text,omitempty"`
	Attachments []SlackAttachment `json:"attachments,omitempty"`
}

func (s *Notifier) sendSlack(ctx context.Context, d SlackData) error {
	_, err := shophttp.Post(s.slackURL).
		JSON(slackPayload{Text: d.Text, Attachments: d.Attachments}).
		Timeout(5*time.Second).
		Retry(2, 200*time.Millisecond).
		Send(ctx)
	if err != nil {
		return fmt.Errorf("notification: slack post: %w", err)
	}
	return nil
}
