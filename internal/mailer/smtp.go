package mailer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"

	"github.com/jhillyerd/enmime"
)

var ErrNotConfigured = errors.New("mail transport not configured")

// Config describes the outbound SMTP relay and the sender identity.
type Config struct {
	Host      string
	Port      int
	User      string
	Password  string
	FromName  string
	FromEmail string
}

// SMTP builds plain-text messages with enmime and hands them to a Sender.
type SMTP struct {
	sender    enmime.Sender
	fromName  string
	fromEmail string
}

// New returns a mailer relaying through cfg.Host, authenticating with PLAIN
// when a user is set.
func New(cfg Config) (*SMTP, error) {
	if cfg.Host == "" {
		return nil, ErrNotConfigured
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	sender := &timeoutSender{addr: addr, auth: auth, timeout: defaultSendTimeout}
	return NewWithSender(sender, cfg.FromName, cfg.FromEmail), nil
}

func NewWithSender(sender enmime.Sender, fromName, fromEmail string) *SMTP {
	if fromName == "" {
		fromName = "News Summarizer"
	}
	return &SMTP{sender: sender, fromName: fromName, fromEmail: fromEmail}
}

// Send delivers a plain-text message to a single recipient. It returns as
// soon as ctx is done, even if the transport is still busy.
func (m *SMTP) Send(ctx context.Context, to, subject, body string) error {
	if m == nil || m.sender == nil {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- enmime.Builder().
			From(m.fromName, m.fromEmail).
			To("", to).
			Subject(subject).
			Text([]byte(body)).
			Send(m.sender)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send mail to %s: %w", to, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to send mail to %s: %w", to, ctx.Err())
	}
}
