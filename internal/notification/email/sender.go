package email

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/brandforge/brandforge/internal/config"
	"github.com/brandforge/brandforge/internal/observability/logger"
)

// Message is one outbound transactional email.
type Message struct {
	Subject string
	Body    string
	From    string
	To      string
}

// Sender delivers transactional email. Callers treat delivery as
// best-effort; a send failure is recorded, never propagated as a fault.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Module provides the configured Sender.
var Module = fx.Module("notification.email",
	fx.Provide(NewSender),
)

// NewSender returns an SMTP sender when SMTP is configured and emails are
// enabled; otherwise deliveries are logged and dropped.
func NewSender(cfg config.Config, log *zap.Logger) Sender {
	if cfg.EmailsEnabled && cfg.SMTPAddr != "" {
		return &SMTPSender{
			addr:     cfg.SMTPAddr,
			username: cfg.SMTPUsername,
			password: cfg.SMTPPassword,
		}
	}
	return &LogSender{log: log.Named("email")}
}

// LogSender records deliveries without sending anything.
type LogSender struct {
	log *zap.Logger
}

// Send logs the message and reports success.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.Info("email suppressed (sending disabled)",
		zap.String("to", logger.MaskEmail(msg.To)),
		zap.String("subject", msg.Subject),
	)
	return nil
}
