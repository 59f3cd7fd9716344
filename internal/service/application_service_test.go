package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/folio/folio/internal/apperror"
	"github.com/folio/folio/internal/clock"
	"github.com/folio/folio/internal/config"
	"github.com/folio/folio/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type applicationFixture struct {
	svc      *ApplicationService
	cfg      *config.ApplicationsConfig
	mailer   *mockMailer
	tokens   *mockCoverTokenStore
	renderer *mockRenderer
}

func newApplicationFixture(t *testing.T, production bool) *applicationFixture {
	t.Helper()

	resume := filepath.Join(t.TempDir(), "resume.pdf")
	require.NoError(t, os.WriteFile(resume, []byte("%PDF-1.4 resume"), 0o644))

	f := &applicationFixture{
		cfg: &config.ApplicationsConfig{
			From:            "Applicant <me@example.com>",
			ResumePath:      resume,
			TestRecipient:   "inbox@example.com",
			YearsExperience: "5+ years",
			Workers:         3,
		},
		mailer:   &mockMailer{},
		tokens:   newMockCoverTokenStore(),
		renderer: &mockRenderer{},
	}

	clk := &clock.Fixed{T: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	logger := testLogger()
	letters := NewCoverLetterService(f.tokens, f.renderer, clk, "https://folio.example.com", time.Hour, f.cfg.YearsExperience, logger)
	profile := config.ProfileConfig{Name: "Jane Doe", Email: "me@example.com", Site: "https://folio.example.com"}
	f.svc = NewApplicationService(letters, f.mailer, clk, f.cfg, profile, production, logger)
	return f
}

func TestApplications_RequiresCompanies(t *testing.T) {
	f := newApplicationFixture(t, true)

	_, err := f.svc.Send(context.Background(), ApplicationRequest{})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestApplications_MissingResume(t *testing.T) {
	f := newApplicationFixture(t, true)
	f.cfg.ResumePath = filepath.Join(t.TempDir(), "nope.pdf")

	_, err := f.svc.Send(context.Background(), ApplicationRequest{
		Companies: []models.ApplicationTarget{{Name: "Acme", Email: "jobs@acme.test"}},
	})
	assert.True(t, apperror.Is(err, apperror.KindInternal))
	assert.Empty(t, f.mailer.messages())
}

func TestApplications_ProductionSendsToCompanies(t *testing.T) {
	f := newApplicationFixture(t, true)

	companies := make([]models.ApplicationTarget, 0, 10)
	for i := 0; i < 10; i++ {
		companies = append(companies, models.ApplicationTarget{
			Name:  fmt.Sprintf("Company %d", i),
			Email: fmt.Sprintf("jobs%d@example.test", i),
		})
	}
	companies = append(companies,
		models.ApplicationTarget{Name: "No Email"},
		models.ApplicationTarget{Email: "nameless@example.test"},
	)

	results, err := f.svc.Send(context.Background(), ApplicationRequest{
		Companies: companies,
		Template:  models.TemplateIndia,
	})
	require.NoError(t, err)

	require.Len(t, results, 10)
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("Company %d", i), r.Company)
		assert.Equal(t, fmt.Sprintf("jobs%d@example.test", i), r.Email)
		assert.NotEmpty(t, r.ID)
		assert.Empty(t, r.Error)
	}

	msgs := f.mailer.messages()
	require.Len(t, msgs, 10)
	assert.Len(t, f.tokens.tokens, 10)

	msg := msgs[0]
	assert.Contains(t, msg.Subject, "Application – Full Stack Developer – ")
	assert.Contains(t, msg.TextBody, "available to join on short notice")
	assert.Contains(t, msg.TextBody, "Jane Doe\nme@example.com\nhttps://folio.example.com")
	require.Len(t, msg.Attachments, 2)
	assert.Equal(t, "resume.pdf", msg.Attachments[1].Filename)
	assert.Equal(t, []byte("%PDF-1.4 resume"), msg.Attachments[1].Data)
	assert.Regexp(t, `^Cover-Letter-Company \d\.pdf$`, msg.Attachments[0].Filename)
}

func TestApplications_DevelopmentUsesTestRecipient(t *testing.T) {
	f := newApplicationFixture(t, false)

	results, err := f.svc.Send(context.Background(), ApplicationRequest{
		Companies:       []models.ApplicationTarget{{Name: "Acme", Email: "jobs@acme.test", Role: "Platform Engineer"}},
		YearsExperience: "7 years",
	})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "inbox@example.com", results[0].Email)

	msgs := f.mailer.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"inbox@example.com"}, msgs[0].To)
	assert.Equal(t, "Application – Platform Engineer – Acme", msgs[0].Subject)
	assert.Contains(t, msgs[0].TextBody, "open to relocation")
	assert.Contains(t, msgs[0].TextBody, "over 7 years of experience")

	require.Len(t, f.renderer.letters, 1)
	assert.Equal(t, "Platform Engineer", f.renderer.letters[0].Role)
	assert.Equal(t, "7 years", f.renderer.letters[0].YearsExperience)
}

func TestApplications_DevelopmentWithoutTestRecipient(t *testing.T) {
	f := newApplicationFixture(t, false)
	f.cfg.TestRecipient = ""

	results, err := f.svc.Send(context.Background(), ApplicationRequest{
		Companies: []models.ApplicationTarget{{Name: "Acme", Email: "jobs@acme.test"}},
	})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "no test recipient configured", results[0].Error)
	assert.Empty(t, f.mailer.messages())
}

func TestApplications_PerCompanyFailures(t *testing.T) {
	f := newApplicationFixture(t, true)
	f.mailer.failFor = map[string]error{"bounce@beta.test": errors.New("550 mailbox unavailable")}

	results, err := f.svc.Send(context.Background(), ApplicationRequest{
		Companies: []models.ApplicationTarget{
			{Name: "Alpha", Email: "jobs@alpha.test"},
			{Name: "Beta", Email: "bounce@beta.test"},
			{Name: "Gamma", Email: "jobs@gamma.test"},
		},
	})
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Empty(t, results[0].Error)
	assert.Equal(t, "Failed to send email", results[1].Error)
	assert.NotContains(t, results[1].Error, "550")
	assert.Empty(t, results[1].ID)
	assert.Empty(t, results[2].Error)
	assert.Len(t, f.mailer.messages(), 2)
}

func TestApplications_RenderFailure(t *testing.T) {
	f := newApplicationFixture(t, true)
	f.renderer.err = errors.New("bad font")

	results, err := f.svc.Send(context.Background(), ApplicationRequest{
		Companies: []models.ApplicationTarget{{Name: "Acme", Email: "jobs@acme.test"}},
	})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "Failed to render cover letter", results[0].Error)
	assert.NotContains(t, results[0].Error, "bad font")
	assert.Empty(t, f.mailer.messages())
}

func TestApplications_TokenStoreFailureHidesCause(t *testing.T) {
	f := newApplicationFixture(t, true)
	f.tokens.err = errors.New("dynamodb: ProvisionedThroughputExceededException")

	results, err := f.svc.Send(context.Background(), ApplicationRequest{
		Companies: []models.ApplicationTarget{{Name: "Acme", Email: "jobs@acme.test"}},
	})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "Internal server error", results[0].Error)
	assert.NotContains(t, results[0].Error, "dynamodb")
	assert.Empty(t, f.mailer.messages())
}
