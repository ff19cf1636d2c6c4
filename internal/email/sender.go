package email

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"dthink_backend/internal/config"
)

// Sender delivers notification email. Failures are reported to the caller
// as a plain error; invite flows treat delivery as fire-and-forget.
type Sender interface {
	Send(to, subject, body string) error
}

type SMTPSender struct {
	cfg *config.Config
}

func NewSMTPSender(cfg *config.Config) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (e *SMTPSender) Send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(e.cfg.Email.FromEmail, e.cfg.Email.FromName))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(
		e.cfg.Email.SMTPHost,
		e.cfg.Email.SMTPPort,
		e.cfg.Email.SMTPUser,
		e.cfg.Email.SMTPPassword,
	)

	return d.DialAndSend(m)
}

// InviteBody renders the project invitation message.
func InviteBody(projectName, inviterName, acceptURL string) string {
	return fmt.Sprintf(
		`<p>%s invited you to collaborate on <strong>%s</strong>.</p>
<p><a href="%s">Accept the invitation</a></p>
<p>If you were not expecting this, you can ignore this message.</p>`,
		inviterName, projectName, acceptURL,
	)
}
