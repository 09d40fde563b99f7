package mailsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/mkrupp/quill/internal/infra/logging"
)

// SMTPConfig holds the relay settings.
type SMTPConfig struct {
	Host     string        `env:"HOST" default:"localhost"`
	Port     int           `env:"PORT" default:"587"`
	Username string        `env:"USERNAME" default:""`
	Password string        `env:"PASSWORD" default:""`
	Timeout  time.Duration `env:"TIMEOUT" default:"15s"`
}

type sendFunc func(ctx context.Context, msgs ...*mail.Msg) error

// SMTPMailService implements MailService over an SMTP relay.
// The connection is upgraded with STARTTLS when the server offers it.
type SMTPMailService struct {
	cfg    MailConfig
	client *mail.Client
	send   sendFunc
	now    func() time.Time
	log    logging.Logger
}

var _ MailService = (*SMTPMailService)(nil)

func NewSMTPMailService(cfg MailConfig) (*SMTPMailService, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.SMTP.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}

	if cfg.SMTP.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.SMTP.Timeout))
	}

	if cfg.SMTP.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTP.Username),
			mail.WithPassword(cfg.SMTP.Password),
		)
	}

	client, err := mail.NewClient(cfg.SMTP.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &SMTPMailService{
		cfg:    cfg,
		client: client,
		send:   client.DialAndSendWithContext,
		now:    time.Now,
		log: logging.GetLogger("svc.mailsvc.smtp_mail_service").With(
			logging.Group("smtp", "host", cfg.SMTP.Host, "port", cfg.SMTP.Port),
		),
	}, nil
}

func (s *SMTPMailService) Send(ctx context.Context, msg Message) (err error) {
	log := s.log.With(logging.Group("mail", "subject", msg.Subject))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "send mail failed", "error", err)
		} else {
			log.DebugContext(ctx, "mail sent")
		}
	}()

	m, err := compose(s.cfg.Sender, msg, s.now())
	if err != nil {
		return fmt.Errorf("compose: %w", err)
	}

	if err := s.send(ctx, m); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	return nil
}
