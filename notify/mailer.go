// Package notify delivers the side effects of workflow changes: emails,
// in-app notification rows and live pushes to connected clients.
package notify

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"
	"time"

	"github.com/Voltaic314/DataRoom/pkg/ids"
)

// Result reports the outcome of one send. Send never fails any other way.
type Result struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Mailer sends a single HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) Result
}

const errNotConfigured = "Mailer not configured"

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPMailer sends through a plain SMTP relay with PLAIN auth.
type SMTPMailer struct {
	cfg      SMTPConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if !cfg.configured() {
		log.Printf("⚠️  Mailer not configured: set mail user, password and host to enable email sending")
	}
	return &SMTPMailer{cfg: cfg, sendMail: smtp.SendMail}
}

func (c SMTPConfig) configured() bool {
	return c.User != "" && c.Password != "" && c.Host != "" && c.Port > 0
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, html string) Result {
	if !m.cfg.configured() {
		log.Printf("⚠️  sendMail skipped (mailer not configured) to=%s subject=%q", to, subject)
		return Result{Success: false, Error: errNotConfigured}
	}

	messageID := fmt.Sprintf("<%s@%s>", strings.ToLower(ids.NewULID()), m.cfg.Host)
	msg := buildMessage(m.cfg.From, to, subject, html, messageID)
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)

	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- m.sendMail(addr, auth, m.cfg.From, []string{to}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Printf("❌ sendMail to %s failed: %v", to, err)
			return Result{Success: false, Error: err.Error()}
		}
		return Result{Success: true, MessageID: messageID}
	case <-ctx.Done():
		log.Printf("❌ sendMail to %s timed out: %v", to, ctx.Err())
		return Result{Success: false, Error: ctx.Err().Error()}
	}
}

func buildMessage(from, to, subject, html, messageID string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", sanitizeHeader(subject))
	fmt.Fprintf(&b, "Message-ID: %s\r\n", messageID)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(html)
	return []byte(b.String())
}

func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
