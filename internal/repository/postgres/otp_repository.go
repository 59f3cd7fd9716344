package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/folio/folio/internal/models"
	"github.com/folio/folio/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

type OTPRepository struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

func NewOTPRepository(pool *pgxpool.Pool, logger *logrus.Logger) *OTPRepository {
	return &OTPRepository{pool: pool, logger: logger}
}

// Rotate invalidates all unused codes for rec.Email and inserts rec. The
// advisory lock serialises rotations for one identity, so it never reports
// ErrConflict.
func (r *OTPRepository) Rotate(ctx context.Context, rec *models.OTPRecord) (int, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(ctx, tx, r.logger)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, rec.Email); err != nil {
		return 0, fmt.Errorf("failed to lock identity: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE admin_otp SET used = TRUE WHERE email = $1 AND used = FALSE`, rec.Email)
	if err != nil {
		return 0, fmt.Errorf("failed to invalidate OTP records: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO admin_otp (id, email, code_hash, used, created_at, expires_at)
		VALUES ($1, $2, $3, FALSE, $4, $5)`,
		rec.ID, rec.Email, rec.CodeHash, rec.CreatedAt, rec.ExpiresAt,
	)
	if err != nil {
		return 0, mapError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.WithError(err).Error("Failed to commit OTP rotation")
		return 0, mapError(err)
	}

	return int(tag.RowsAffected()), nil
}

func (r *OTPRepository) FindActive(ctx context.Context, email string, now time.Time) (*models.OTPRecord, error) {
	var rec models.OTPRecord
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, code_hash, used, created_at, expires_at
		FROM admin_otp
		WHERE email = $1 AND used = FALSE AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT 1`,
		email, now,
	).Scan(&rec.ID, &rec.Email, &rec.CodeHash, &rec.Used, &rec.CreatedAt, &rec.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		r.logger.WithError(err).Error("Failed to find active OTP in Postgres")
		return nil, fmt.Errorf("failed to find active OTP: %w", err)
	}

	return &rec, nil
}

func (r *OTPRepository) MarkUsed(ctx context.Context, rec *models.OTPRecord) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE admin_otp SET used = TRUE WHERE id = $1 AND used = FALSE`, rec.ID)
	if err != nil {
		r.logger.WithError(err).Error("Failed to mark OTP used in Postgres")
		return fmt.Errorf("failed to mark OTP used: %w", err)
	}

	if tag.RowsAffected() != 1 {
		return repository.ErrAlreadyUsed
	}

	rec.Used = true
	return nil
}
