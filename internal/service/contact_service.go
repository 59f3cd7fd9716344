package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/folio/folio/internal/apperror"
	"github.com/folio/folio/internal/clock"
	"github.com/folio/folio/internal/config"
	"github.com/folio/folio/internal/mail"
	"github.com/folio/folio/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type ContactService struct {
	store  ContactStore
	mailer mail.Mailer
	clock  clock.Clock
	cfg    *config.ContactConfig
	logger *logrus.Logger
}

func NewContactService(store ContactStore, mailer mail.Mailer, clk clock.Clock, cfg *config.ContactConfig, logger *logrus.Logger) *ContactService {
	return &ContactService{
		store:  store,
		mailer: mailer,
		clock:  clk,
		cfg:    cfg,
		logger: logger,
	}
}

// Submit stores the message and notifies the site owner.
func (s *ContactService) Submit(ctx context.Context, m *models.ContactMessage) error {
	if m.Name == "" || m.Email == "" || m.Subject == "" || m.Message == "" {
		return apperror.Validation("All fields are required.")
	}

	m.ID = uuid.New().String()
	m.CreatedAt = s.clock.Now()

	if err := s.store.Create(ctx, m); err != nil {
		s.logger.WithError(err).Error("Failed to store contact message")
		return apperror.Internal("Failed to send message.", err)
	}

	err := s.mailer.Send(ctx, mail.Message{
		From:     s.cfg.From,
		To:       []string{s.cfg.To},
		ReplyTo:  m.Email,
		Subject:  "[Portfolio] " + m.Subject,
		HTMLBody: contactHTML(m),
	})
	mailSentTotal.WithLabelValues("contact", mailResult(err)).Inc()
	if err != nil {
		s.logger.WithError(err).WithField("id", m.ID).Error("Failed to send contact notification")
		return apperror.Internal("Failed to send message.", err)
	}

	return nil
}

func contactHTML(m *models.ContactMessage) string {
	message := strings.ReplaceAll(html.EscapeString(m.Message), "\n", "<br/>")
	return fmt.Sprintf(`<h2>New contact message from portfolio</h2>
<p><strong>Name:</strong> %s</p>
<p><strong>Email:</strong> %s</p>
<p><strong>Subject:</strong> %s</p>
<p><strong>Message:</strong></p>
<p>%s</p>`,
		html.EscapeString(m.Name),
		html.EscapeString(m.Email),
		html.EscapeString(m.Subject),
		message,
	)
}
