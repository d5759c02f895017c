package notification

import (
	"fmt"
	"net/smtp"
	"strings"

	"skbeauty-be/internal/config"
	"skbeauty-be/internal/logger"

	"go.uber.org/zap"
)

// Mailer dispatches transactional email. Implementations must not be load
// bearing: callers fire and forget, and a failed send is only logged.
type Mailer interface {
	Send(to, subject, textBody, htmlBody string) error
}

type smtpMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

func NewSMTPMailer(cfg *config.Config) Mailer {
	if cfg.EmailUser == "" {
		logger.L().Warn("SMTP credentials are empty, outgoing mail will fail")
	}

	from := cfg.EmailFrom
	if from == "" {
		from = cfg.EmailUser
	}

	return &smtpMailer{
		host:     cfg.EmailHost,
		port:     cfg.EmailPort,
		username: cfg.EmailUser,
		password: cfg.EmailPassword,
		from:     from,
	}
}

func (m *smtpMailer) Send(to, subject, textBody, htmlBody string) error {
	subject = SanitizeForTransport(subject)
	textBody = SanitizeForTransport(textBody)

	var msg strings.Builder
	msg.WriteString("From: " + m.from + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")

	if htmlBody != "" {
		htmlBody = SanitizeForTransport(htmlBody)
		msg.WriteString("Content-Type: multipart/alternative; boundary=boundary42\r\n\r\n")
		msg.WriteString("--boundary42\r\n")
		msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		msg.WriteString(textBody + "\r\n")
		msg.WriteString("--boundary42\r\n")
		msg.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
		msg.WriteString(htmlBody + "\r\n")
		msg.WriteString("--boundary42--\r\n")
	} else {
		msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		msg.WriteString(textBody + "\r\n")
	}

	addr := fmt.Sprintf("%s:%s", m.host, m.port)
	auth := smtp.PlainAuth("", m.username, m.password, m.host)

	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg.String())); err != nil {
		logger.L().Error("failed to send email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err),
		)
		return err
	}

	return nil
}
