package service

import (
	"context"
	"time"

	"github.com/folio/folio/internal/coverletter"
	"github.com/folio/folio/internal/models"
)

// Store contracts are satisfied by both the DynamoDB repositories and the
// postgres ones.

type AccessStore interface {
	IsActive(ctx context.Context, email string) (bool, error)
}

type OTPStore interface {
	// Rotate invalidates every unused record for rec.Email and stores rec
	// atomically. It returns the number of records invalidated.
	Rotate(ctx context.Context, rec *models.OTPRecord) (int, error)
	FindActive(ctx context.Context, email string, now time.Time) (*models.OTPRecord, error)
	MarkUsed(ctx context.Context, rec *models.OTPRecord) error
}

type ProjectStore interface {
	List(ctx context.Context, publishedOnly bool) ([]models.Project, error)
	GetBySlug(ctx context.Context, slug string) (*models.Project, error)
	Create(ctx context.Context, p *models.Project) error
	Update(ctx context.Context, oldSlug string, p *models.Project) error
	Delete(ctx context.Context, slug string) error
}

type CoverTokenStore interface {
	Create(ctx context.Context, t *models.CoverToken) error
	Get(ctx context.Context, token string) (*models.CoverToken, error)
}

type ContactStore interface {
	Create(ctx context.Context, m *models.ContactMessage) error
}

// Throttle admits one caller per key until ttl elapses or the key is
// released.
type Throttle interface {
	Allow(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Revoker remembers logged-out session IDs until the session would have
// expired anyway.
type Revoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type LetterRenderer interface {
	Generate(l coverletter.Letter) ([]byte, error)
}
