// Package mailsvc delivers plain-text notification mails.
package mailsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

const (
	TransportLog  = "log"
	TransportSMTP = "smtp"
)

var ErrUnknownTransport = errors.New("unknown mail transport")

// MailConfig holds configuration parameters for outgoing mail.
type MailConfig struct {
	// Transport is "log" (write mails to the log) or "smtp"
	Transport string `env:"TRANSPORT" default:"log"`
	// Sender is the From address of every mail
	Sender string `env:"SENDER" default:"noreply@quill.local"`

	SMTP SMTPConfig `envPrefix:"SMTP_"`
}

// Message is a single plain-text mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// MailService sends messages from the configured sender.
type MailService interface {
	Send(ctx context.Context, msg Message) error
}

// NewMailService returns the transport selected by cfg.Transport.
func NewMailService(cfg MailConfig) (MailService, error) {
	switch cfg.Transport {
	case TransportLog:
		return NewLogMailService(cfg), nil
	case TransportSMTP:
		return NewSMTPMailService(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, cfg.Transport)
	}
}

// compose builds msg as a plain-text mail from the given sender.
func compose(from string, msg Message, now time.Time) (*mail.Msg, error) {
	m := mail.NewMsg()

	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}

	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("set recipient: %w", err)
	}

	m.Subject(msg.Subject)
	m.SetDateWithValue(now)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	return m, nil
}
