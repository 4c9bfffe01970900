package notify

import (
	"context"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
)

// SMTPTransport sends through a plain SMTP relay. The password is the transport credential.
type SMTPTransport struct {
	host     string
	port     string
	username string
	password string

	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPTransport(host, port, username, password string) *SMTPTransport {
	return &SMTPTransport{
		host:     host,
		port:     port,
		username: username,
		password: password,
		sendMail: smtp.SendMail,
	}
}

func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	from, err := mail.ParseAddress(msg.From)
	if err != nil {
		return fmt.Errorf("parse sender %q: %w", msg.From, err)
	}

	var auth smtp.Auth
	if t.username != "" {
		auth = smtp.PlainAuth("", t.username, t.password, t.host)
	}

	addr := net.JoinHostPort(t.host, t.port)
	raw := buildMIME(msg)

	// net/smtp has no context support; give up waiting once ctx is done.
	errCh := make(chan error, 1)
	go func() {
		errCh <- t.sendMail(addr, auth, from.Address, []string{msg.To}, raw)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("send %s notification via smtp: %w", msg.Kind, ctx.Err())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("send %s notification via smtp: %w", msg.Kind, err)
		}
		return nil
	}
}

func buildMIME(msg Message) []byte {
	const boundary = "waitlist-alt-boundary"

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", msg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", boundary, msg.Text)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", boundary, msg.HTML)
	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	return []byte(b.String())
}
