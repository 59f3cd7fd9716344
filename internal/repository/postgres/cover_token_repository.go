package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/folio/folio/internal/models"
	"github.com/folio/folio/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

type CoverTokenRepository struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

func NewCoverTokenRepository(pool *pgxpool.Pool, logger *logrus.Logger) *CoverTokenRepository {
	return &CoverTokenRepository{pool: pool, logger: logger}
}

func (r *CoverTokenRepository) Create(ctx context.Context, t *models.CoverToken) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO cover_tokens (token, company_name, email, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)`,
		t.Token, t.CompanyName, t.Email, t.CreatedAt, t.ExpiresAt,
	)
	if err != nil {
		r.logger.WithError(err).Error("Failed to store cover token in Postgres")
		return fmt.Errorf("failed to store cover token: %w", err)
	}

	return nil
}

func (r *CoverTokenRepository) Get(ctx context.Context, token string) (*models.CoverToken, error) {
	var t models.CoverToken
	err := r.pool.QueryRow(ctx, `
		SELECT token, company_name, email, created_at, expires_at
		FROM cover_tokens WHERE token = $1`, token,
	).Scan(&t.Token, &t.CompanyName, &t.Email, &t.CreatedAt, &t.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		r.logger.WithError(err).Error("Failed to get cover token from Postgres")
		return nil, fmt.Errorf("failed to get cover token: %w", err)
	}

	return &t, nil
}
