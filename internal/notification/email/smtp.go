package email

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

// SMTPSender delivers mail over SMTP with PLAIN auth.
type SMTPSender struct {
	addr     string
	username string
	password string
}

// Send delivers one message. The context deadline is not honored mid-dial;
// net/smtp has no context support, so callers should send after commit, off
// the critical path.
func (s *SMTPSender) Send(_ context.Context, msg Message) error {
	to := strings.TrimSpace(msg.To)
	if to == "" {
		return fmt.Errorf("missing recipient")
	}

	host, _, err := net.SplitHostPort(s.addr)
	if err != nil {
		return fmt.Errorf("invalid smtp address %q: %w", s.addr, err)
	}

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, host)
	}

	body := strings.Join([]string{
		"From: " + msg.From,
		"To: " + to,
		"Subject: " + msg.Subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		msg.Body,
	}, "\r\n")

	return smtp.SendMail(s.addr, auth, msg.From, []string{to}, []byte(body))
}
