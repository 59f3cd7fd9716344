// Package mail defines the contract for sending email and its SMTP
// implementation. Services depend on the Mailer interface only.
package mail

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
)

// Attachment is a file carried by a message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message represents an email payload.
type Message struct {
	// ID becomes the Message-ID header when set.
	ID string
	// From is an optional explicit sender; the mailer default is used when empty.
	From    string
	To      []string
	ReplyTo string
	Subject string
	// TextBody is used alone when HTMLBody is empty.
	TextBody    string
	HTMLBody    string
	Attachments []Attachment
}

// Mailer abstracts an email provider.
type Mailer interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of delivering them. It is
// used when no SMTP host is configured.
type LogMailer struct {
	logger *logrus.Logger
}

func NewLogMailer(logger *logrus.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.logger.WithFields(logrus.Fields{
		"to":          msg.To,
		"subject":     msg.Subject,
		"attachments": len(msg.Attachments),
	}).Info("Email not delivered, SMTP is not configured")

	return nil
}

func (m *LogMailer) Close() error {
	return nil
}
