package notification

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"affiliate/internal/outbox"

	"go.uber.org/zap"
)

// Sender delivers a rendered message
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Mailer renders notification payloads and hands them to a Sender
type Mailer struct {
	renderer *Renderer
	sender   Sender
	log      *zap.Logger
}

func NewMailer(renderer *Renderer, sender Sender, log *zap.Logger) *Mailer {
	return &Mailer{renderer: renderer, sender: sender, log: log}
}

// Send satisfies outbox.Mailer
func (m *Mailer) Send(ctx context.Context, p outbox.EmailPayload) error {
	body, err := m.renderer.Render(p.Template, p.Props)
	if err != nil {
		return err
	}
	if err := m.sender.Send(ctx, p.To, p.Subject, body); err != nil {
		m.log.Warn("email delivery failed", zap.String("template", p.Template), zap.String("to", p.To), zap.Error(err))
		return fmt.Errorf("send %s email: %w", p.Template, err)
	}
	m.log.Info("email sent", zap.String("template", p.Template), zap.String("to", p.To))
	return nil
}

// defaultSendTimeout bounds a conversation when the caller's context has no deadline
const defaultSendTimeout = 30 * time.Second

// SMTPSender sends over implicit TLS (port 465)
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
	dial     func(ctx context.Context, network, addr string) (net.Conn, error)
}

func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	dialer := &tls.Dialer{Config: &tls.Config{ServerName: host}}
	return &SMTPSender{host: host, port: port, username: username, password: password, from: from, dial: dialer.DialContext}
}

// Send holds the whole SMTP conversation to ctx: the connection deadline follows
// ctx's deadline and the connection is closed once ctx is done.
func (e *SMTPSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg, err := buildMessage(e.from, to, subject, htmlBody)
	if err != nil {
		return fmt.Errorf("%w: %v", outbox.ErrPermanent, err)
	}

	conn, err := e.dial(ctx, "tcp", net.JoinHostPort(e.host, strconv.Itoa(e.port)))
	if err != nil {
		return err
	}
	defer conn.Close()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultSendTimeout)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := e.converse(conn, to, msg); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("smtp send: %w", ctx.Err())
		}
		return err
	}
	return nil
}

func (e *SMTPSender) converse(conn net.Conn, to string, msg []byte) error {
	client, err := smtp.NewClient(conn, e.host)
	if err != nil {
		return err
	}
	defer client.Quit()

	if e.username != "" {
		if err := client.Auth(smtp.PlainAuth("", e.username, e.password, e.host)); err != nil {
			return err
		}
	}
	from, _ := mail.ParseAddress(e.from)
	rcpt, _ := mail.ParseAddress(to)
	if err := client.Mail(from.Address); err != nil {
		return err
	}
	if err := client.Rcpt(rcpt.Address); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	return w.Close()
}

var errHeaderBreak = errors.New("header value contains a line break")

// buildMessage encodes the headers. Addresses must parse, and no header value may carry CR or LF.
func buildMessage(from, to, subject, htmlBody string) ([]byte, error) {
	fromAddr, err := headerAddress(from)
	if err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	toAddr, err := headerAddress(to)
	if err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	if strings.ContainsAny(subject, "\r\n") {
		return nil, fmt.Errorf("subject: %w", errHeaderBreak)
	}

	return []byte(
		"From: " + fromAddr + "\r\n" +
			"To: " + toAddr + "\r\n" +
			"Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n" +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=\"utf-8\"\r\n" +
			"\r\n" +
			htmlBody,
	), nil
}

func headerAddress(raw string) (string, error) {
	if strings.ContainsAny(raw, "\r\n") {
		return "", errHeaderBreak
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return "", err
	}
	return addr.String(), nil
}

// LogSender records messages instead of delivering them. Used when SMTP is not configured.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (l *LogSender) Send(_ context.Context, to, subject, _ string) error {
	l.log.Info("smtp not configured, email skipped", zap.String("to", to), zap.String("subject", subject))
	return nil
}
