package mailsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/mkrupp/quill/internal/infra/logging"
)

// LogMailService implements MailService by writing mails to the log.
// Meant for development setups without a relay.
type LogMailService struct {
	cfg MailConfig
	log logging.Logger
}

var _ MailService = (*LogMailService)(nil)

func NewLogMailService(cfg MailConfig) *LogMailService {
	return &LogMailService{
		cfg: cfg,
		log: logging.GetLogger("svc.mailsvc.log_mail_service"),
	}
}

func (s *LogMailService) Send(ctx context.Context, msg Message) error {
	if _, err := compose(s.cfg.Sender, msg, time.Now()); err != nil {
		return fmt.Errorf("compose: %w", err)
	}

	s.log.InfoContext(ctx, "mail", logging.Group("mail",
		"from", s.cfg.Sender,
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body,
	))

	return nil
}
