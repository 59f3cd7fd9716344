package mail

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
)

var (
	ErrSMTPHostPortRequired = errors.New("smtp host and port are required")
	ErrSMTPNoRecipients     = errors.New("no recipients provided")
	ErrSMTPNoSender         = errors.New("no sender provided")
	ErrSMTPHeaderLineBreak  = errors.New("header value contains a line break")
)

// SMTP is a Mailer backed by net/smtp.
type SMTP struct {
	addr        string
	host        string
	defaultFrom string
	implicitTLS bool
	auth        smtp.Auth
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is the default sender when Message.From is empty.
	From string
	// ImplicitTLS dials TLS directly (port 465) instead of STARTTLS.
	ImplicitTLS bool
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
		addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		host:        cfg.Host,
		defaultFrom: cfg.From,
		implicitTLS: cfg.ImplicitTLS,
		auth:        auth,
	}, nil
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(msg.To) == 0 {
		return ErrSMTPNoRecipients
	}

	from := msg.From
	if from == "" {
		from = s.defaultFrom
	}
	if from == "" {
		return ErrSMTPNoSender
	}

	if err := checkHeaders(from, msg); err != nil {
		return err
	}

	raw := buildMessage(from, msg, multipartBoundary)

	if err := ctx.Err(); err != nil {
		return err
	}

	envelopeFrom := addressOf(from)
	if !s.implicitTLS {
		return smtp.SendMail(s.addr, s.auth, envelopeFrom, msg.To, raw)
	}

	return s.sendImplicitTLS(envelopeFrom, msg.To, raw)
}

func (s *SMTP) sendImplicitTLS(from string, to []string, raw []byte) error {
	conn, err := tls.Dial("tcp", s.addr, &tls.Config{ServerName: s.host})
	if err != nil {
		return fmt.Errorf("failed to dial smtp: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}
	defer client.Quit()

	if s.auth != nil {
		if err := client.Auth(s.auth); err != nil {
			return fmt.Errorf("smtp auth failed: %w", err)
		}
	}

	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	return w.Close()
}

func (s *SMTP) Close() error {
	return nil
}

// checkHeaders rejects addresses and IDs that would end the header line
// early. The subject is Q-encoded and cannot break out.
func checkHeaders(from string, msg Message) error {
	values := append([]string{from, msg.ReplyTo, msg.ID}, msg.To...)
	for _, v := range values {
		if strings.ContainsAny(v, "\r\n") {
			return ErrSMTPHeaderLineBreak
		}
	}
	return nil
}

// headerValue drops CR and LF so a value always stays on its own line.
func headerValue(v string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(v)
}

// buildMessage renders headers and body. Attachments turn the message into
// multipart/mixed around the text/html body part.
func buildMessage(from string, msg Message, boundary func() string) []byte {
	to := make([]string, len(msg.To))
	for i, addr := range msg.To {
		to[i] = headerValue(addr)
	}

	headers := []string{
		fmt.Sprintf("From: %s", headerValue(from)),
		fmt.Sprintf("To: %s", strings.Join(to, ", ")),
	}
	if msg.ReplyTo != "" {
		headers = append(headers, fmt.Sprintf("Reply-To: %s", headerValue(msg.ReplyTo)))
	}
	if msg.ID != "" {
		headers = append(headers, fmt.Sprintf("Message-ID: <%s>", headerValue(msg.ID)))
	}
	headers = append(headers,
		fmt.Sprintf("Subject: %s", mime.QEncoding.Encode("utf-8", msg.Subject)),
		"MIME-Version: 1.0",
	)

	body, contentType := buildBody(msg, boundary)

	if len(msg.Attachments) > 0 {
		mixed := boundary()
		var sb strings.Builder
		fmt.Fprintf(&sb, "--%s\r\n", mixed)
		fmt.Fprintf(&sb, "Content-Type: %s\r\n\r\n", contentType)
		sb.WriteString(body)
		sb.WriteString("\r\n")
		for _, a := range msg.Attachments {
			ct := a.ContentType
			if ct == "" {
				ct = "application/octet-stream"
			}
			fmt.Fprintf(&sb, "--%s\r\n", mixed)
			fmt.Fprintf(&sb, "Content-Type: %s; name=%q\r\n", ct, a.Filename)
			sb.WriteString("Content-Transfer-Encoding: base64\r\n")
			fmt.Fprintf(&sb, "Content-Disposition: attachment; filename=%q\r\n\r\n", a.Filename)
			sb.WriteString(wrapBase64(a.Data))
		}
		fmt.Fprintf(&sb, "--%s--", mixed)

		body = sb.String()
		contentType = fmt.Sprintf("multipart/mixed; boundary=%s", mixed)
	}

	headers = append(headers, fmt.Sprintf("Content-Type: %s", contentType))

	return []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + body)
}

func buildBody(msg Message, boundary func() string) (body string, contentType string) {
	if msg.HTMLBody != "" && msg.TextBody != "" {
		b := boundary()
		var sb strings.Builder
		sb.WriteString("This is a multipart message in MIME format.\r\n")
		fmt.Fprintf(&sb, "--%s\r\n", b)
		sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		sb.WriteString("\r\n")
		sb.WriteString(msg.TextBody)
		sb.WriteString("\r\n")
		fmt.Fprintf(&sb, "--%s\r\n", b)
		sb.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
		sb.WriteString("\r\n")
		sb.WriteString(msg.HTMLBody)
		sb.WriteString("\r\n")
		fmt.Fprintf(&sb, "--%s--", b)
		return sb.String(), fmt.Sprintf("multipart/alternative; boundary=%s", b)
	}

	if msg.HTMLBody != "" {
		return msg.HTMLBody, "text/html; charset=UTF-8"
	}

	return msg.TextBody, "text/plain; charset=UTF-8"
}

// wrapBase64 encodes data in 76 character lines.
func wrapBase64(data []byte) string {
	encoded := base64.StdEncoding.EncodeToString(data)
	var sb strings.Builder
	for len(encoded) > 76 {
		sb.WriteString(encoded[:76])
		sb.WriteString("\r\n")
		encoded = encoded[76:]
	}
	sb.WriteString(encoded)
	sb.WriteString("\r\n")
	return sb.String()
}

// addressOf extracts the bare address from "Name <addr>".
func addressOf(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		if j := strings.LastIndex(from, ">"); j > i {
			return from[i+1 : j]
		}
	}
	return from
}

func multipartBoundary() string {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "folio-boundary-fallback"
	}
	return "folio-boundary-" + hex.EncodeToString(b[:])
}
