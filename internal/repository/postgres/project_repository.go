package postgres

import (
	"context"
	"fmt"

	"github.com/folio/folio/internal/models"
	"github.com/folio/folio/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

const projectColumns = `id, slug, title, client, type, technology, role, image,
	description, highlights, links, published, created_at, updated_at`

type ProjectRepository struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

func NewProjectRepository(pool *pgxpool.Pool, logger *logrus.Logger) *ProjectRepository {
	return &ProjectRepository{pool: pool, logger: logger}
}

func scanProject(row pgx.CollectableRow) (models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.ID, &p.Slug, &p.Title, &p.Client, &p.Type, &p.Technology, &p.Role, &p.Image,
		&p.Description, &p.Highlights, &p.Links, &p.Published, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (r *ProjectRepository) List(ctx context.Context, publishedOnly bool) ([]models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects`
	if publishedOnly {
		query += ` WHERE published = TRUE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.WithError(err).Error("Failed to list projects from Postgres")
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	projects, err := pgx.CollectRows(rows, scanProject)
	if err != nil {
		return nil, fmt.Errorf("failed to scan projects: %w", err)
	}

	return projects, nil
}

func (r *ProjectRepository) GetBySlug(ctx context.Context, slug string) (*models.Project, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+projectColumns+` FROM projects WHERE slug = $1`, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProject)
	if err != nil {
		return nil, mapError(err)
	}

	return &p, nil
}

func (r *ProjectRepository) Create(ctx context.Context, p *models.Project) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		p.ID, p.Slug, p.Title, p.Client, p.Type, p.Technology, p.Role, p.Image,
		p.Description, lo.Compact(p.Highlights), lo.Compact(p.Links), p.Published, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if mapped := mapError(err); mapped == repository.ErrConflict {
			return mapped
		}
		r.logger.WithError(err).Error("Failed to create project in Postgres")
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

func (r *ProjectRepository) Update(ctx context.Context, oldSlug string, p *models.Project) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE projects SET
			slug = $2, title = $3, client = $4, type = $5, technology = $6, role = $7,
			image = $8, description = $9, highlights = $10, links = $11, published = $12,
			updated_at = $13
		WHERE slug = $1`,
		oldSlug, p.Slug, p.Title, p.Client, p.Type, p.Technology, p.Role,
		p.Image, p.Description, lo.Compact(p.Highlights), lo.Compact(p.Links), p.Published,
		p.UpdatedAt,
	)
	if err != nil {
		if mapped := mapError(err); mapped == repository.ErrConflict {
			return mapped
		}
		r.logger.WithError(err).Error("Failed to update project in Postgres")
		return fmt.Errorf("failed to update project: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, slug string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE slug = $1`, slug)
	if err != nil {
		r.logger.WithError(err).Error("Failed to delete project from Postgres")
		return fmt.Errorf("failed to delete project: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}
