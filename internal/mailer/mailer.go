// Package mailer sends Quivio transactional email over SMTP.
package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
)

// ErrDisabled is returned for every send while email delivery is switched
// off. Callers treat it like any other transport failure: the recipient
// stays pending and is retried once emails are enabled again.
var ErrDisabled = errors.New("email sending is disabled")

// CapsuleNotification is the rendered payload for one capsule-opened email.
type CapsuleNotification struct {
	CapsuleTitle   string
	CapsuleMessage string
	SenderName     string
	CreatedDate    string
	// IsPersonal marks the capsule creator receiving their own capsule,
	// which changes the greeting and framing.
	IsPersonal bool
	ImageURLs  []string
	VideoURLs  []string
}

type Mailer interface {
	SendCapsuleNotification(ctx context.Context, to string, n CapsuleNotification) error
}

type SMTPMailer struct {
	host        string
	port        string
	username    string
	password    string
	fromName    string
	frontendURL string
	enabled     bool
}

func NewSMTPMailer(host, port, username, password, fromName, frontendURL string, enabled bool) *SMTPMailer {
	return &SMTPMailer{
		host:        host,
		port:        port,
		username:    username,
		password:    password,
		fromName:    fromName,
		frontendURL: frontendURL,
		enabled:     enabled && host != "" && username != "" && password != "",
	}
}

func (m *SMTPMailer) SendCapsuleNotification(ctx context.Context, to string, n CapsuleNotification) error {
	if !m.enabled {
		return ErrDisabled
	}

	subject, html, text, err := renderCapsuleNotification(n, m.frontendURL)
	if err != nil {
		return fmt.Errorf("rendering notification: %w", err)
	}

	msg, err := m.buildMessage(to, subject, text, html)
	if err != nil {
		return fmt.Errorf("building message: %w", err)
	}

	return m.send(ctx, to, msg)
}

// send speaks SMTP with STARTTLS. The context deadline bounds the dial and
// the whole exchange via the connection deadline.
func (m *SMTPMailer) send(ctx context.Context, to string, msg []byte) error {
	addr := net.JoinHostPort(m.host, m.port)

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}

	if err := client.Mail(m.username); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}

// buildMessage assembles a multipart/alternative MIME message with plain
// text and HTML parts.
func (m *SMTPMailer) buildMessage(to, subject, textBody, htmlBody string) ([]byte, error) {
	var buf bytes.Buffer
	alt := multipart.NewWriter(&buf)

	headers := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: multipart/alternative; boundary=%q\r\n\r\n",
		m.fromName, m.username, to, subject, alt.Boundary())

	textPart, err := alt.CreatePart(textproto.MIMEHeader{
		"Content-Type": {`text/plain; charset="UTF-8"`},
	})
	if err != nil {
		return nil, err
	}
	if _, err := textPart.Write([]byte(textBody)); err != nil {
		return nil, err
	}

	htmlPart, err := alt.CreatePart(textproto.MIMEHeader{
		"Content-Type": {`text/html; charset="UTF-8"`},
	})
	if err != nil {
		return nil, err
	}
	if _, err := htmlPart.Write([]byte(htmlBody)); err != nil {
		return nil, err
	}

	if err := alt.Close(); err != nil {
		return nil, err
	}

	return append([]byte(headers), buf.Bytes()...), nil
}
