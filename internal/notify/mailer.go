// Package notify delivers operator notifications by email.
package notify

import (
	"context"
	"fmt"

	"github.com/nikoksr/notify"
	"github.com/nikoksr/notify/service/mail"
	"github.com/sabarim/kitelogin/internal/config"
	"github.com/sabarim/kitelogin/internal/logger"
)

// Notifier sends a message and never fails the caller.
type Notifier interface {
	Notify(ctx context.Context, subject, body string)
}

type sender interface {
	Send(ctx context.Context, subject, message string) error
}

// Mailer sends notifications over SMTP.
type Mailer struct {
	sender  sender
	enabled bool
	logger  logger.Logger
}

// NewMailer builds a mailer from cfg. Without a recipient and complete SMTP
// settings the mailer is disabled and Notify does nothing.
func NewMailer(cfg config.NotifyConfig, log logger.Logger) *Mailer {
	m := &Mailer{logger: log}
	if cfg.Email == "" || cfg.SMTPHost == "" || cfg.SMTPUser == "" || cfg.SMTPPass == "" {
		return m
	}

	smtp := mail.New(cfg.SMTPUser, fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort))
	smtp.AuthenticateSMTP("", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost)
	smtp.BodyFormat(mail.PlainText)
	smtp.AddReceivers(cfg.Email)

	ntf := notify.New()
	ntf.UseServices(smtp)

	m.sender = ntf
	m.enabled = true
	return m
}

// Enabled reports whether notifications will be delivered.
func (m *Mailer) Enabled() bool {
	return m.enabled
}

// Notify sends the message; failures are logged only.
func (m *Mailer) Notify(ctx context.Context, subject, body string) {
	if !m.enabled {
		return
	}
	if err := m.sender.Send(ctx, subject, body); err != nil {
		m.logger.Warn(ctx, "failed to send notification", map[string]interface{}{
			"subject": subject,
			"error":   err.Error(),
		})
		return
	}
	m.logger.Debug(ctx, "notification sent", map[string]interface{}{"subject": subject})
}

// Nop discards notifications.
type Nop struct{}

func (Nop) Notify(ctx context.Context, subject, body string) {}
