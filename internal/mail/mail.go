package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"
)

// SMTPSender delivers mail through a plain SMTP relay. Delivery is attempted
// once per call; retry policy belongs to the caller (and for confirmed user
// actions there is none).
type SMTPSender struct {
	addr    string // host:port
	from    string
	auth    smtp.Auth
	timeout time.Duration
}

func NewSMTPSender(host string, port int, username, password, from string, timeout time.Duration) *SMTPSender {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &SMTPSender{
		addr:    fmt.Sprintf("%s:%d", host, port),
		from:    from,
		auth:    auth,
		timeout: timeout,
	}
}

// Send delivers one message. The context deadline caps the whole exchange.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msg := buildMessage(s.from, to, subject, body)

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(s.addr, s.auth, s.from, []string{to}, msg)
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %w", ctx.Err())
	}
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}
