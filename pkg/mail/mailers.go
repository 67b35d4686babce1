package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"sync"

	"github.com/shashiranjanraj/shopfront/config"
	"github.com/shashiranjanraj/shopfront/pkg/logger"
)

// SMTP holds connection credentials.
type SMTP struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// SMTPFromConfig reads MAIL_* settings.
func SMTPFromConfig() SMTP {
	return SMTP{
		Host:     config.Get("MAIL_HOST", "localhost"),
		Port:     config.Get("MAIL_PORT", "587"),
		Username: config.Get("MAIL_USERNAME", ""),
		Password: config.Get("MAIL_PASSWORD", ""),
		From:     config.Get("MAIL_FROM", "shop@example.com"),
		FromName: config.Get("MAIL_FROM_NAME", "Shopfront"),
	}
}

func (c SMTP) from() string {
	if c.FromName == "" {
		return c.From
	}
	return fmt.Sprintf("%s <%s>", c.FromName, c.From)
}

// FromConfig returns the mailer selected by MAIL_MAILER.
func FromConfig() Mailer {
	if config.MailMailer() == "smtp" {
		return NewSMTPMailer(SMTPFromConfig())
	}
	return LogMailer{}
}

// SMTPMailer sends through an SMTP relay. Port 465 uses implicit TLS;
// other ports go through smtp.SendMail, which upgrades with STARTTLS when
// the server offers it.
type SMTPMailer struct {
	cfg SMTP
}

func NewSMTPMailer(cfg SMTP) *SMTPMailer { return &SMTPMailer{cfg: cfg} }

func (s *SMTPMailer) Send(ctx context.Context, m *Message) error {
	raw, err := m.Bytes(s.cfg.from())
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if s.cfg.Port == "465" {
		err = s.sendTLS(ctx, addr, auth, m.envelope(), raw)
	} else {
		err = smtp.SendMail(addr, auth, s.cfg.From, m.envelope(), raw)
	}
	if err != nil {
		return fmt.Errorf("mail: send %q: %w", m.subject, err)
	}
	return nil
}

func (s *SMTPMailer) sendTLS(ctx context.Context, addr string, auth smtp.Auth, to []string, raw []byte) error {
	d := tls.Dialer{Config: &tls.Config{ServerName: s.cfg.Host}}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("mail: TLS dial: %w", err)
	}
	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(s.cfg.From); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

// LogMailer writes messages to the application log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, m *Message) error {
	if err := m.validate(); err != nil {
		return err
	}
	logger.WithCtx(ctx).Info("mail: message logged",
		"to", m.to, "subject", m.subject, "text", m.text)
	return nil
}

// Fake records messages in memory. Set Err to make Send fail.
type Fake struct {
	mu   sync.Mutex
	sent []*Message
	Err  error
}

func (f *Fake) Send(_ context.Context, m *Message) error {
	if err := m.validate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.sent = append(f.sent, m)
	return nil
}

// Sent returns the recorded messages in send order.
func (f *Fake) Sent() []*Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Message(nil), f.sent...)
}

// SetErr changes the error returned by subsequent sends.
func (f *Fake) SetErr(err error) {
	f.mu.Lock()
	f.Err = err
	f.mu.Unlock()
}
