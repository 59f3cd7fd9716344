package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/folio/folio/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

type AccessRepository struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

func NewAccessRepository(pool *pgxpool.Pool, logger *logrus.Logger) *AccessRepository {
	return &AccessRepository{pool: pool, logger: logger}
}

func (r *AccessRepository) IsActive(ctx context.Context, email string) (bool, error) {
	var active bool
	err := r.pool.QueryRow(ctx,
		`SELECT is_active FROM admin_access WHERE email = $1`, email,
	).Scan(&active)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		r.logger.WithError(err).Error("Failed to get access entry from Postgres")
		return false, fmt.Errorf("failed to get access entry: %w", err)
	}

	return active, nil
}

func (r *AccessRepository) Upsert(ctx context.Context, entry *models.AccessEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO admin_access (email, is_active)
		VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE
		SET is_active = EXCLUDED.is_active, updated_at = NOW()`,
		entry.Email, entry.IsActive,
	)
	if err != nil {
		r.logger.WithError(err).Error("Failed to upsert access entry in Postgres")
		return fmt.Errorf("failed to upsert access entry: %w", err)
	}

	return nil
}
