// Package mailer delivers recovery codes over SMTP.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ZLoganZ/SocialNetwork-Server/internal/config"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/domain"
)

// Mailer sends a recovery code to an address. Implementations must not
// block past their configured timeout.
type Mailer interface {
	SendRecoveryCode(ctx context.Context, email, code string) error
}

// SMTPMailer delivers through a single SMTP relay with STARTTLS.
type SMTPMailer struct {
	host    string
	port    string
	user    string
	pass    string
	from    string
	timeout time.Duration
	logger  *zap.Logger
}

var _ Mailer = (*SMTPMailer)(nil)

func NewSMTPMailer(cfg config.Config, logger *zap.Logger) *SMTPMailer {
	if logger == nil {
		logger = zap.L()
	}
	return &SMTPMailer{
		host:    cfg.SMTPHost,
		port:    cfg.SMTPPort,
		user:    cfg.SMTPUser,
		pass:    cfg.SMTPPass,
		from:    cfg.SMTPFrom,
		timeout: cfg.SMTPTimeout,
		logger:  logger,
	}
}

// SendRecoveryCode emails the plaintext code. Any transport failure
// surfaces as DeliveryFailed; the code itself is never logged.
func (m *SMTPMailer) SendRecoveryCode(ctx context.Context, email, code string) error {
	deadline := time.Now().Add(m.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := m.send(email, code, deadline); err != nil {
		m.logger.Warn("recovery mail delivery failed", zap.String("email", email), zap.Error(err))
		return domain.E(domain.KindDeliveryFailed, "Could not send recovery email!")
	}
	m.logger.Info("recovery mail sent", zap.String("email", email))
	return nil
}

func (m *SMTPMailer) send(email, code string, deadline time.Time) error {
	addr := net.JoinHostPort(m.host, m.port)
	conn, err := net.DialTimeout("tcp", addr, time.Until(deadline))
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	_ = conn.SetDeadline(deadline)

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if m.user != "" {
		auth := smtp.PlainAuth("", m.user, m.pass, m.host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(m.from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(email); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write([]byte(recoveryMessage(m.from, email, code))); err != nil {
		w.Close()
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close message: %w", err)
	}
	return client.Quit()
}

func recoveryMessage(from, to, code string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	b.WriteString("Subject: Password recovery code\r\n")
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&b, "Your password recovery code is: %s\r\n\r\n", code)
	b.WriteString("The code expires in 10 minutes. If you did not request it, ignore this email.\r\n")
	return b.String()
}
