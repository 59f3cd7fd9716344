package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/folio/folio/internal/apperror"
	"github.com/folio/folio/internal/clock"
	"github.com/folio/folio/internal/coverletter"
	"github.com/folio/folio/internal/models"
	"github.com/folio/folio/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CoverLetterService hands out short-lived download links and renders the
// letter behind them.
type CoverLetterService struct {
	store           CoverTokenStore
	renderer        LetterRenderer
	clock           clock.Clock
	baseURL         string
	ttl             time.Duration
	yearsExperience string
	logger          *logrus.Logger
}

func NewCoverLetterService(
	store CoverTokenStore,
	renderer LetterRenderer,
	clk clock.Clock,
	baseURL string,
	ttl time.Duration,
	yearsExperience string,
	logger *logrus.Logger,
) *CoverLetterService {
	return &CoverLetterService{
		store:           store,
		renderer:        renderer,
		clock:           clk,
		baseURL:         strings.TrimRight(baseURL, "/"),
		ttl:             ttl,
		yearsExperience: yearsExperience,
		logger:          logger,
	}
}

// CreateToken stores a token for company and returns its download link.
func (s *CoverLetterService) CreateToken(ctx context.Context, company, email string) (string, *models.CoverToken, error) {
	company = strings.TrimSpace(company)
	email = strings.TrimSpace(email)
	if company == "" || email == "" {
		return "", nil, apperror.Validation("companyName and email are required")
	}

	now := s.clock.Now()
	t := &models.CoverToken{
		Token:       uuid.New().String(),
		CompanyName: company,
		Email:       email,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}

	if err := s.store.Create(ctx, t); err != nil {
		s.logger.WithError(err).Error("Failed to store cover token")
		return "", nil, apperror.Internal("Internal server error", err)
	}

	return s.Link(t.Token), t, nil
}

func (s *CoverLetterService) Link(token string) string {
	return s.baseURL + "/cover-letter/" + token
}

// Render returns the PDF behind token. Unknown and expired tokens are both
// reported as not found.
func (s *CoverLetterService) Render(ctx context.Context, token string) ([]byte, error) {
	t, err := s.store.Get(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound("Cover letter not found")
	}
	if err != nil {
		s.logger.WithError(err).Error("Failed to load cover token")
		return nil, apperror.Internal("Internal server error", err)
	}

	now := s.clock.Now()
	if t.Expired(now) {
		return nil, apperror.NotFound("Cover letter not found")
	}

	return s.Generate(t.CompanyName, "", s.yearsExperience, now)
}

// Generate renders a letter without a token.
func (s *CoverLetterService) Generate(company, role, years string, date time.Time) ([]byte, error) {
	pdf, err := s.renderer.Generate(coverletter.Letter{
		Company:         company,
		Role:            role,
		YearsExperience: years,
		Date:            date,
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to render cover letter")
		return nil, apperror.Internal("Failed to render cover letter", err)
	}
	return pdf, nil
}
