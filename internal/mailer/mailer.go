// Package mailer отправляет служебные письма (сброс пароля).
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"gopkg.in/gomail.v2"
)

// Message письмо одному получателю
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Dialer: часть gomail.Dialer, нужная для отправки; подменяется в тестах
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpMailer struct {
	log    *slog.Logger
	dialer Dialer
	sender string
}

// NewSMTPMailer создает отправителя поверх SMTP-сервера
func NewSMTPMailer(log *slog.Logger, host string, port int, username, password, sender string) Mailer {
	return NewMailerWithDialer(log, gomail.NewDialer(host, port, username, password), sender)
}

func NewMailerWithDialer(log *slog.Logger, dialer Dialer, sender string) Mailer {
	return &smtpMailer{log: log, dialer: dialer, sender: sender}
}

func (m *smtpMailer) Send(ctx context.Context, msg Message) error {
	const op = "mailer.SMTP.Send"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.sender)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		gm.AddAlternative("text/html", msg.HTML)
	}

	if err := m.dialer.DialAndSend(gm); err != nil {
		m.log.Error("failed to send mail", slog.String("op", op), slog.String("to", msg.To), slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	m.log.Info("mail sent", slog.String("op", op), slog.String("to", msg.To))
	return nil
}

type logMailer struct {
	log *slog.Logger
}

// NewLogMailer пишет письма в лог вместо отправки; для локального окружения
func NewLogMailer(log *slog.Logger) Mailer {
	return &logMailer{log: log}
}

// значения token= в ссылках не попадают в лог
var tokenParam = regexp.MustCompile(`(token=)[^&\s"]+`)

func redact(s string) string {
	return tokenParam.ReplaceAllString(s, "${1}[REDACTED]")
}

func (m *logMailer) Send(_ context.Context, msg Message) error {
	m.log.Info("mail delivery disabled, message logged",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("text", redact(msg.Text)),
	)
	return nil
}
