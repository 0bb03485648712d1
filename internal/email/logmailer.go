package email

import "log/slog"

// LogMailer logs instead of sending. Used in development when SMTP is not
// configured; the reset link shows up in the process log.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

var _ Mailer = (*LogMailer)(nil)

func (m *LogMailer) SendPasswordReset(to, resetURL string) error {
	m.logger.Info("password reset email (smtp not configured)", "to", to, "url", resetURL)
	return nil
}
