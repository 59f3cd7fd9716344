package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/folio/folio/internal/apperror"
	"github.com/folio/folio/internal/clock"
	"github.com/folio/folio/internal/config"
	"github.com/folio/folio/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContactService() (*ContactService, *mockContactStore, *mockMailer) {
	store := &mockContactStore{}
	mailer := &mockMailer{}
	clk := &clock.Fixed{T: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	cfg := &config.ContactConfig{To: "owner@example.com", From: "Portfolio Contact <no-reply@example.com>"}
	return NewContactService(store, mailer, clk, cfg, testLogger()), store, mailer
}

func TestContact_Submit(t *testing.T) {
	svc, store, mailer := newTestContactService()

	err := svc.Submit(context.Background(), &models.ContactMessage{
		Name:    "Visitor <script>",
		Email:   "visitor@example.com",
		Subject: "Hello",
		Message: "line one\nline <b>two</b>",
	})
	require.NoError(t, err)

	require.Len(t, store.saved, 1)
	assert.NotEmpty(t, store.saved[0].ID)
	assert.False(t, store.saved[0].CreatedAt.IsZero())

	msgs := mailer.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"owner@example.com"}, msgs[0].To)
	assert.Equal(t, "visitor@example.com", msgs[0].ReplyTo)
	assert.Equal(t, "[Portfolio] Hello", msgs[0].Subject)
	assert.Contains(t, msgs[0].HTMLBody, "Visitor &lt;script&gt;")
	assert.Contains(t, msgs[0].HTMLBody, "line one<br/>line &lt;b&gt;two&lt;/b&gt;")
}

func TestContact_SubmitValidation(t *testing.T) {
	svc, store, mailer := newTestContactService()

	err := svc.Submit(context.Background(), &models.ContactMessage{Name: "a", Email: "b@example.com", Subject: "c"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Empty(t, store.saved)
	assert.Empty(t, mailer.messages())
}

func TestContact_SubmitFailures(t *testing.T) {
	msg := func() *models.ContactMessage {
		return &models.ContactMessage{Name: "a", Email: "b@example.com", Subject: "c", Message: "d"}
	}

	svc, store, mailer := newTestContactService()
	store.err = errors.New("disk full")
	assert.True(t, apperror.Is(svc.Submit(context.Background(), msg()), apperror.KindInternal))
	assert.Empty(t, mailer.messages())

	svc, _, mailer = newTestContactService()
	mailer.err = errors.New("smtp down")
	err := svc.Submit(context.Background(), msg())
	assert.True(t, apperror.Is(err, apperror.KindInternal))
	assert.Equal(t, "Failed to send message.", apperror.As(err).Message)
}
