package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/wallet-insight/internal/config"
)

// EmailNotifier sends alerts to the configured account over SMTP with
// implicit TLS (port 465 style endpoints).
type EmailNotifier struct {
	host     string
	port     string
	user     string
	password string
}

func NewEmailNotifier(cfg *config.NotifyConfig) *EmailNotifier {
	return &EmailNotifier{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.EmailUser,
		password: cfg.EmailPassword,
	}
}

func (e *EmailNotifier) Name() string { return "email" }

func (e *EmailNotifier) Send(ctx context.Context, msg Message) error {
	addr := net.JoinHostPort(e.host, e.port)

	dialer := &tls.Dialer{Config: &tls.Config{ServerName: e.host}}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to dial SMTP server: %w", err)
	}

	client, err := smtp.NewClient(conn, e.host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() {
		_ = client.Close()
	}()

	auth := smtp.PlainAuth("", e.user, e.password, e.host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP auth failed: %w", err)
	}

	if err := client.Mail(e.user); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(e.user); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open message body: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", e.user)
	fmt.Fprintf(&b, "To: %s\r\n", e.user)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	b.WriteString("\r\n")

	if _, err := w.Write([]byte(b.String())); err != nil {
		return fmt.Errorf("failed to write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish message: %w", err)
	}

	return client.Quit()
}
