package email

import (
	"fmt"

	mail "github.com/go-mail/mail"
)

// Mailer sends transactional mail over SMTP.
type Mailer interface {
	SendPasswordReset(to, resetURL string) error
}

type smtpMailer struct {
	dialer *mail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, username, password, from string) Mailer {
	return &smtpMailer{
		dialer: mail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *smtpMailer) SendPasswordReset(to, resetURL string) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Reset your password")
	msg.SetBody("text/plain", fmt.Sprintf(
		"A password reset was requested for this address.\n\n"+
			"Open the link below to choose a new password. The link is valid "+
			"for 15 minutes and can be used once.\n\n%s\n\n"+
			"If you did not request this, you can ignore this email.\n", resetURL))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send password reset: %w", err)
	}
	return nil
}
