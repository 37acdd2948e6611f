// Package mailer delivers the password recovery email. An SMTP host being
// configured selects the real sender; otherwise the console mailer prints the
// message so local environments still surface the reset link.
package mailer

import (
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/frahmantamala/document-repository/internal"
)

type SMTPMailer struct {
	addr   string
	auth   smtp.Auth
	from   string
	logger *slog.Logger
}

func NewSMTPMailer(cfg internal.MailerConfig, logger *slog.Logger) *SMTPMailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.SMTPHost)
	}
	return &SMTPMailer{
		addr:   fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		auth:   auth,
		from:   cfg.From,
		logger: logger,
	}
}

func (m *SMTPMailer) SendPasswordReset(email, fullName, link string) error {
	msg := buildResetMessage(m.from, email, fullName, link)
	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{email}, msg); err != nil {
		m.logger.Error("smtp send failed", "error", err, "to", email)
		return err
	}
	m.logger.Info("password reset email sent", "to", email)
	return nil
}

// ConsoleMailer writes the message to the log instead of sending it.
type ConsoleMailer struct {
	logger *slog.Logger
}

func NewConsoleMailer(logger *slog.Logger) *ConsoleMailer {
	return &ConsoleMailer{logger: logger}
}

func (m *ConsoleMailer) SendPasswordReset(email, fullName, link string) error {
	m.logger.Info("simulated password reset email",
		"to", email,
		"nombre", fullName,
		"enlace", link,
	)
	return nil
}

func buildResetMessage(from, to, fullName, link string) []byte {
	body := fmt.Sprintf(
		"Hola %s,\r\n\r\n"+
			"Recibimos una solicitud para restablecer tu contraseña del Repositorio de Dirección.\r\n"+
			"Ingresa al siguiente enlace para definir una nueva contraseña (válido por 1 hora):\r\n\r\n"+
			"%s\r\n\r\n"+
			"Si no solicitaste este cambio, ignora este mensaje.\r\n",
		fullName, link,
	)
	headers := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Recuperación de contraseña\r\n"+
			"MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n",
		from, to,
	)
	return []byte(headers + body)
}
