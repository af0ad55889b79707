// Package mail renders and delivers transactional email.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/smtp"

	"go.uber.org/zap"

	"github.com/jackson0tr/lerko-backend/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

// Mailer delivers a rendered template to a single recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, templateName string, data any) error
}

// SMTPMailer sends mail over a plain-auth SMTP relay.
type SMTPMailer struct {
	addr      string
	auth      smtp.Auth
	from      string
	templates *template.Template
	log       *zap.Logger
}

func NewSMTPMailer(cfg *config.Config, log *zap.Logger) (*SMTPMailer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	return &SMTPMailer{
		addr:      fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		auth:      smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost),
		from:      cfg.SMTPFrom,
		templates: tmpl,
		log:       log,
	}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, templateName string, data any) error {
	var body bytes.Buffer
	if err := m.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("render %s: %w", templateName, err)
	}

	msg := bytes.Buffer{}
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, msg.Bytes()); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	m.log.Debug("mail sent", zap.String("to", to), zap.String("template", templateName))
	return nil
}
