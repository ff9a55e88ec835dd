package mailer

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

type SMTPMailer struct {
	host     string
	port     int
	user     string
	password string
	fromName string
	logger   *logrus.Logger
}

func NewSMTPMailer(host string, port int, user, password, fromName string, logger *logrus.Logger) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		user:     user,
		password: password,
		fromName: fromName,
		logger:   logger,
	}
}

// Send delivers one plain-text message over SMTP. Missing credentials fail
// deterministically without dialing. The dial-and-send runs in a goroutine so
// the context deadline bounds a stalled connection.
func (m *SMTPMailer) Send(ctx context.Context, recipient, subject, body string) error {
	if m.user == "" || m.password == "" {
		m.logger.Warn("EMAIL_USER / EMAIL_PASS not configured; cannot send email")
		return fmt.Errorf("smtp credentials not configured")
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.user, m.fromName)
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	dialer := gomail.NewDialer(m.host, m.port, m.user, m.password)

	done := make(chan error, 1)
	go func() {
		done <- dialer.DialAndSend(msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send aborted: %w", ctx.Err())
	}
}
