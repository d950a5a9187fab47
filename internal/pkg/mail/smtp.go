package mail

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

var (
	ErrSMTPHostPortRequired = errors.New("smtp host and port are required")
	ErrSMTPNoRecipients     = errors.New("no recipients provided")
	ErrSMTPNoSender         = errors.New("no sender provided")
)

// SMTPConfig configures SMTP.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTP sends mail through net/smtp.
type SMTP struct {
	addr        string
	defaultFrom string
	auth        smtp.Auth
	send        func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, ErrSMTPHostPortRequired
	}

	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &SMTP{
		addr:        net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		defaultFrom: cfg.From,
		auth:        auth,
		send:        smtp.SendMail,
	}, nil
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	recipients := msg.Recipients()
	if len(recipients) == 0 {
		return ErrSMTPNoRecipients
	}

	if msg.From == "" {
		msg.From = s.defaultFrom
	}
	if msg.From == "" {
		return ErrSMTPNoSender
	}

	return s.send(s.addr, s.auth, msg.From, recipients, compose(msg, boundary()))
}

func (s *SMTP) Close() error { return nil }

func compose(msg Message, bnd string) []byte {
	var sb strings.Builder
	header := func(k, v string) { fmt.Fprintf(&sb, "%s: %s\r\n", k, v) }

	header("From", msg.From)
	header("To", strings.Join(msg.To, ", "))
	if len(msg.Cc) > 0 {
		header("Cc", strings.Join(msg.Cc, ", "))
	}
	header("Subject", msg.Subject)
	header("MIME-Version", "1.0")

	switch {
	case msg.HTMLBody != "" && msg.TextBody != "":
		header("Content-Type", "multipart/alternative; boundary="+bnd)
		sb.WriteString("\r\n")
		for _, part := range []struct{ typ, body string }{
			{"text/plain", msg.TextBody},
			{"text/html", msg.HTMLBody},
		} {
			fmt.Fprintf(&sb, "--%s\r\nContent-Type: %s; charset=UTF-8\r\n\r\n%s\r\n", bnd, part.typ, part.body)
		}
		fmt.Fprintf(&sb, "--%s--", bnd)
	case msg.HTMLBody != "":
		header("Content-Type", "text/html; charset=UTF-8")
		sb.WriteString("\r\n" + msg.HTMLBody)
	default:
		header("Content-Type", "text/plain; charset=UTF-8")
		sb.WriteString("\r\n" + msg.TextBody)
	}

	return []byte(sb.String())
}

func boundary() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return "twostep-" + hex.EncodeToString(b[:])
}
