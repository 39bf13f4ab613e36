package notifier

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// SMTPNotifier delivers notifications through a plain SMTP relay.
type SMTPNotifier struct {
	host     string
	port     int
	username string
	password string
	from     string
	logger   *zap.Logger
}

func NewSMTPNotifier(host string, port int, username, password, from string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		logger:   logger,
	}
}

func (n *SMTPNotifier) Notify(ctx context.Context, notification Notification) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("notification cancelled: %w", err)
	}

	message := buildMIMEMessage(n.from, notification)

	var auth smtp.Auth
	if n.username != "" {
		auth = smtp.PlainAuth("", n.username, n.password, n.host)
	}

	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	if err := smtp.SendMail(addr, auth, n.from, []string{notification.RecipientEmail}, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	n.logger.Info("Sent notification email",
		zap.String("recipient", notification.RecipientEmail),
		zap.String("subject", notification.Subject))
	return nil
}

// buildMIMEMessage assembles a multipart/alternative message with text and
// HTML parts.
func buildMIMEMessage(from string, notification Notification) []byte {
	const boundary = "safewatch-alert-boundary"

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("From: %s\r\n", from))
	builder.WriteString(fmt.Sprintf("To: %s\r\n", notification.RecipientEmail))
	builder.WriteString(fmt.Sprintf("Subject: %s\r\n", notification.Subject))
	builder.WriteString("MIME-Version: 1.0\r\n")
	builder.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%s\r\n", boundary))
	builder.WriteString("\r\n")

	builder.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	builder.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	builder.WriteString(notification.TextBody)
	builder.WriteString("\r\n")

	builder.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	builder.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	builder.WriteString(notification.HTMLBody)
	builder.WriteString("\r\n")

	builder.WriteString(fmt.Sprintf("--%s--\r\n", boundary))

	return []byte(builder.String())
}

// LogNotifier is a delivery stub that only logs. It always succeeds, which
// keeps the dispatch records deterministic in environments without an SMTP
// relay.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, notification Notification) error {
	n.logger.Info("Notification (log-only delivery)",
		zap.String("recipient", notification.RecipientEmail),
		zap.String("subject", notification.Subject),
		zap.String("body", notification.TextBody))
	return nil
}
