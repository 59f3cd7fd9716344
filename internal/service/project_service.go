package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/folio/folio/internal/apperror"
	"github.com/folio/folio/internal/clock"
	"github.com/folio/folio/internal/models"
	"github.com/folio/folio/internal/repository"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and collapses every run of characters outside
// [a-z0-9] into a single dash, without leading or trailing dashes.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonSlugChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ProjectInput is the editable part of a project.
type ProjectInput struct {
	Slug        string
	Title       string
	Client      string
	Type        string
	Technology  string
	Role        string
	Image       string
	Description string
	Highlights  []string
	Links       []string
	// Published defaults to true when nil.
	Published *bool
}

type ProjectService struct {
	store  ProjectStore
	clock  clock.Clock
	logger *logrus.Logger
}

func NewProjectService(store ProjectStore, clk clock.Clock, logger *logrus.Logger) *ProjectService {
	return &ProjectService{
		store:  store,
		clock:  clk,
		logger: logger,
	}
}

func (s *ProjectService) List(ctx context.Context, publishedOnly bool) ([]models.Project, error) {
	projects, err := s.store.List(ctx, publishedOnly)
	if err != nil {
		s.logger.WithError(err).Error("Failed to fetch projects")
		return nil, apperror.Internal("Failed to fetch projects", err)
	}
	if projects == nil {
		projects = []models.Project{}
	}
	return projects, nil
}

// Get returns the project stored under slug. With publishedOnly, drafts are
// reported as not found.
func (s *ProjectService) Get(ctx context.Context, slug string, publishedOnly bool) (*models.Project, error) {
	p, err := s.store.GetBySlug(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound("Not found")
	}
	if err != nil {
		s.logger.WithError(err).WithField("slug", slug).Error("Failed to fetch project")
		return nil, apperror.Internal("Failed to fetch project", err)
	}
	if publishedOnly && !p.Published {
		return nil, apperror.NotFound("Not found")
	}
	return p, nil
}

func (s *ProjectService) Create(ctx context.Context, in ProjectInput) (*models.Project, error) {
	p, err := s.build(in)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	p.ID = uuid.New().String()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.store.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperror.Conflict("A project with this slug already exists.")
		}
		s.logger.WithError(err).Error("Failed to create project")
		return nil, apperror.Internal("Failed to create project", err)
	}

	s.logger.WithField("slug", p.Slug).Info("Project created")
	return p, nil
}

func (s *ProjectService) Update(ctx context.Context, slug string, in ProjectInput) (*models.Project, error) {
	next, err := s.build(in)
	if err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, slug, false)
	if err != nil {
		return nil, err
	}

	next.ID = current.ID
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = s.clock.Now().UTC()

	if err := s.store.Update(ctx, slug, next); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperror.NotFound("Not found")
		case errors.Is(err, repository.ErrConflict):
			return nil, apperror.Conflict("A project with this slug already exists.")
		}
		s.logger.WithError(err).WithField("slug", slug).Error("Failed to update project")
		return nil, apperror.Internal("Failed to update project", err)
	}

	return next, nil
}

func (s *ProjectService) Delete(ctx context.Context, slug string) error {
	if err := s.store.Delete(ctx, slug); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("Not found")
		}
		s.logger.WithError(err).WithField("slug", slug).Error("Failed to delete project")
		return apperror.Internal("Failed to delete project", err)
	}
	return nil
}

func (s *ProjectService) build(in ProjectInput) (*models.Project, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.Validation("Title is required")
	}

	slug := Slugify(lo.Ternary(strings.TrimSpace(in.Slug) != "", in.Slug, title))
	if slug == "" {
		return nil, apperror.Validation("Slug must contain letters or digits")
	}

	return &models.Project{
		Slug:        slug,
		Title:       title,
		Client:      strings.TrimSpace(in.Client),
		Type:        strings.TrimSpace(in.Type),
		Technology:  strings.TrimSpace(in.Technology),
		Role:        strings.TrimSpace(in.Role),
		Image:       strings.TrimSpace(in.Image),
		Description: strings.TrimSpace(in.Description),
		Highlights:  cleanList(in.Highlights),
		Links:       cleanList(in.Links),
		Published:   lo.FromPtrOr(in.Published, true),
	}, nil
}

// cleanList trims entries and drops empty ones. It never returns nil.
func cleanList(items []string) []string {
	return lo.Compact(lo.Map(items, func(item string, _ int) string {
		return strings.TrimSpace(item)
	}))
}
