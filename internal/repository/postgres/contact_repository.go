package postgres

import (
	"context"
	"fmt"

	"github.com/folio/folio/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

type ContactRepository struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

func NewContactRepository(pool *pgxpool.Pool, logger *logrus.Logger) *ContactRepository {
	return &ContactRepository{pool: pool, logger: logger}
}

func (r *ContactRepository) Create(ctx context.Context, m *models.ContactMessage) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO contact_messages (id, name, email, subject, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.Name, m.Email, m.Subject, m.Message, m.CreatedAt,
	)
	if err != nil {
		r.logger.WithError(err).Error("Failed to store contact message in Postgres")
		return fmt.Errorf("failed to store contact message: %w", err)
	}

	return nil
}
